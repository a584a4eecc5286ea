package compare

import (
	"sort"
	"strings"

	"github.com/bobmcallan/navcheck/internal/models"
)

func cashRank(assetType string) int {
	switch strings.ToLower(assetType) {
	case "cash":
		return 2
	case "cashf":
		return 1
	}
	return 0
}

// SortCashLast orders items so that "cashf" follows everything else and
// "cash" comes last. The sort is stable within each group.
func SortCashLast(items []models.ValidationItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return cashRank(items[i].AssetType) < cashRank(items[j].AssetType)
	})
}
