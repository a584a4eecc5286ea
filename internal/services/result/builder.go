// Package result assembles validation results from partitioned items.
package result

import "github.com/bobmcallan/navcheck/internal/models"

// Builder stamps results with the configured product name.
type Builder struct {
	productName string
}

// NewBuilder returns a Builder for productName.
func NewBuilder(productName string) Builder {
	if productName == "" {
		productName = "validus"
	}
	return Builder{productName: productName}
}

// ProductName returns the name stamped on every result.
func (b Builder) ProductName() string {
	return b.productName
}

// Detailed builds a KPI-driven result. Precision defaults to PERCENTAGE
// when the KPI does not set one.
func (b Builder) Detailed(typ, subType, subType2 string, failed, passed []models.ValidationItem, threshold float64, kpi *models.KPI) models.ValidationResult {
	data := counts(failed, passed)
	data.Threshold = &threshold
	data.PrecisionType = models.PrecisionPercentage
	if kpi != nil {
		data.PrecisionType = kpi.PrecisionType.OrDefault()
		data.KPICode = kpi.Code
		data.KPIName = kpi.Name
		data.KPIID = kpi.ID
		data.KPIDescription = kpi.Description
	}
	return models.ValidationResult{
		ProductName: b.productName,
		Type:        typ,
		SubType:     subType,
		SubType2:    subType2,
		Message:     message(failed),
		Data:        data,
	}
}

// Default builds a result for structural checks that run regardless of the
// KPI catalog.
func (b Builder) Default(typ, subType, subType2 string, failed, passed []models.ValidationItem) models.ValidationResult {
	data := counts(failed, passed)
	data.ValidationSource = "default"
	return models.ValidationResult{
		ProductName: b.productName,
		Type:        typ,
		SubType:     subType,
		SubType2:    subType2,
		Message:     message(failed),
		Data:        data,
	}
}

// Error builds a result describing a check that could not be evaluated.
func (b Builder) Error(typ, subType, subType2, msg string) models.ValidationResult {
	return models.ValidationResult{
		ProductName: b.productName,
		Type:        typ,
		SubType:     subType,
		SubType2:    subType2,
		Message:     models.MessageError,
		Data: models.ResultData{
			Error:       msg,
			FailedItems: []models.ValidationItem{},
			PassedItems: []models.ValidationItem{},
		},
	}
}

func counts(failed, passed []models.ValidationItem) models.ResultData {
	return models.ResultData{
		Count:        len(failed),
		TotalChecked: len(failed) + len(passed),
		PassedCount:  len(passed),
		FailedItems:  nonNil(failed),
		PassedItems:  nonNil(passed),
	}
}

func message(failed []models.ValidationItem) int {
	if len(failed) > 0 {
		return models.MessageFail
	}
	return models.MessagePass
}

func nonNil(items []models.ValidationItem) []models.ValidationItem {
	if items == nil {
		return []models.ValidationItem{}
	}
	out := make([]models.ValidationItem, len(items))
	copy(out, items)
	return out
}
