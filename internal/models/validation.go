package models

// Result messages.
const (
	MessagePass  = 0
	MessageFail  = 1
	MessageError = -1
)

// ValidationItem is one compared entity inside a validation result.
type ValidationItem struct {
	Identifier  string `json:"identifier"`
	InvID       string `json:"inv_id,omitempty"`
	Description string `json:"description,omitempty"`
	Security    string `json:"security,omitempty"`
	AssetType   string `json:"asset_type,omitempty"`
	Field       string `json:"field,omitempty"`

	ValueA           *float64 `json:"value_a"`
	ValueB           *float64 `json:"value_b"`
	Change           *float64 `json:"change"`
	ChangeValue      *float64 `json:"change_value"`
	PercentageChange *float64 `json:"percentage_change,omitempty"`
	AbsoluteChange   *float64 `json:"absolute_change,omitempty"`

	PrecisionType     PrecisionType `json:"precision_type,omitempty"`
	Threshold         float64       `json:"threshold"`
	IsFailed          bool          `json:"is_failed"`
	ThresholdExceeded bool          `json:"threshold_exceeded"`
	IsMajorChange     *bool         `json:"is_major_change,omitempty"`
	Comparison        string        `json:"comparison,omitempty"`

	DisplayChange string `json:"display_change,omitempty"`
	TooltipChange string `json:"tooltip_change,omitempty"`
	Issue         string `json:"issue,omitempty"`
	Note          string `json:"note,omitempty"`
	Error         string `json:"error,omitempty"`

	IsCorpAction   bool   `json:"is_corp_action,omitempty"`
	CorpActionInfo string `json:"corp_action_info,omitempty"`

	IsChild      bool             `json:"is_child,omitempty"`
	IsGrandchild bool             `json:"is_grandchild,omitempty"`
	ParentID     string           `json:"parent_id,omitempty"`
	Children     []ValidationItem `json:"children,omitempty"`
	Breakdown    []BreakdownLine  `json:"extra_data_children,omitempty"`
}

// BreakdownLine is one general-ledger transaction shown under an expense.
type BreakdownLine struct {
	TransactionDescription string   `json:"transaction_description"`
	SourceAValue           float64  `json:"source_a_value"`
	SourceBValue           float64  `json:"source_b_value"`
	GLAccount              string   `json:"gl_account"`
	Type                   string   `json:"type"`
	IsException            int      `json:"is_exception"`
	Change                 *float64 `json:"change"`
}

// ValidationResult is the uniform record produced by every check.
type ValidationResult struct {
	ProductName string     `json:"productName"`
	Type        string     `json:"type"`
	SubType     string     `json:"subType"`
	SubType2    string     `json:"subType2"`
	Message     int        `json:"message"`
	Data        ResultData `json:"data"`
}

// ResultData carries the counts, items and KPI metadata of a result.
type ResultData struct {
	Count        int `json:"count"`
	TotalChecked int `json:"total_checked"`
	PassedCount  int `json:"passed_count"`

	Threshold        *float64      `json:"threshold,omitempty"`
	PrecisionType    PrecisionType `json:"precision_type,omitempty"`
	KPICode          string        `json:"kpi_code,omitempty"`
	KPIName          string        `json:"kpi_name,omitempty"`
	KPIID            int64         `json:"kpi_id,omitempty"`
	KPIDescription   string        `json:"kpi_description,omitempty"`
	ValidationSource string        `json:"validation_source,omitempty"`
	Error            string        `json:"error,omitempty"`

	FailedItems []ValidationItem `json:"failed_items"`
	PassedItems []ValidationItem `json:"passed_items"`

	Ratio        *RatioDetail        `json:"ratio,omitempty"`
	Availability *AvailabilityDetail `json:"availability,omitempty"`
	FileStatus   *FileStatusDetail   `json:"file_status,omitempty"`
	Quality      *QualityDetail      `json:"quality,omitempty"`
}

// IsError reports whether the result represents a failed evaluation.
func (r ValidationResult) IsError() bool {
	return r.Message == MessageError
}

// RatioDetail describes the numerator/denominator pair behind a ratio check.
type RatioDetail struct {
	RatioType              string   `json:"ratioType"`
	RatioSubType           string   `json:"ratioSubType"`
	SourceA                *float64 `json:"sourceA"`
	SourceB                *float64 `json:"sourceB"`
	Change                 *float64 `json:"change"`
	IsMajor                bool     `json:"isMajor"`
	NumeratorField         string   `json:"numeratorField"`
	DenominatorField       string   `json:"denominatorField"`
	NumeratorA             float64  `json:"numeratorA"`
	NumeratorB             float64  `json:"numeratorB"`
	DenominatorA           float64  `json:"denominatorA"`
	DenominatorB           float64  `json:"denominatorB"`
	NumeratorDescription   string   `json:"numeratorDescription"`
	DenominatorDescription string   `json:"denominatorDescription"`
	Formula                string   `json:"formula"`
}

// AvailabilityDetail reports the record count for one side of a run.
type AvailabilityDetail struct {
	DataType    string `json:"dataType"`
	SourceLabel string `json:"sourceLabel"`
	Source      string `json:"source"`
	Date        string `json:"date"`
	RecordCount int    `json:"recordCount"`
	HasData     bool   `json:"hasData"`
	Description string `json:"description"`
}

// FileStatusDetail reports whether both sides of a run received data.
type FileStatusDetail struct {
	SourceA      string `json:"sourceA"`
	SourceB      string `json:"sourceB"`
	DateA        string `json:"dateA"`
	DateB        string `json:"dateB"`
	HasDataA     bool   `json:"hasDataA"`
	HasDataB     bool   `json:"hasDataB"`
	FileReceived bool   `json:"fileReceived"`
	DataSource   string `json:"dataSource"`
}

// QualityDetail reports a structural data check on one snapshot.
type QualityDetail struct {
	Check       string  `json:"check"`
	Source      string  `json:"source"`
	Date        string  `json:"date"`
	Value       float64 `json:"value"`
	Tolerance   float64 `json:"tolerance"`
	Description string  `json:"description"`
}
