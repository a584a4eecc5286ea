package report

import "github.com/bobmcallan/navcheck/internal/models"

// Summarize counts results by message and groups them by (type, subType)
// in first-seen order.
func Summarize(results []models.ValidationResult) models.RunSummary {
	var s models.RunSummary
	index := map[[2]string]int{}

	for _, r := range results {
		s.Total++
		key := [2]string{r.Type, r.SubType}
		i, ok := index[key]
		if !ok {
			i = len(s.Categories)
			index[key] = i
			s.Categories = append(s.Categories, models.CategorySummary{Type: r.Type, SubType: r.SubType})
		}
		c := &s.Categories[i]
		c.Checks++

		switch r.Message {
		case models.MessageError:
			s.Errors++
			c.Errors++
		case models.MessageFail:
			s.Failed++
			c.Failed++
		default:
			s.Passed++
			c.Passed++
		}
		s.Exceptions += r.Data.Count
		c.Exceptions += r.Data.Count
	}
	if s.Categories == nil {
		s.Categories = []models.CategorySummary{}
	}
	return s
}
