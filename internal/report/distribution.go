package report

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/academic-report-api/internal/models"
)

var (
	bucketFloor   = decimal.Zero
	bucketHigh    = decimal.NewFromInt(3)
	bucketTop     = decimal.NewFromInt(4)
	bucketCeiling = decimal.NewFromInt(5)
)

// Distribute buckets subject totals into [0,3) basic, [3,4) high and [4,5]
// superior. Totals outside [0,5] only count toward Total.
func Distribute(group models.Group, grades []models.SubjectGrade) models.GradeDistribution {
	dist := models.GradeDistribution{GroupID: group.ID, GroupName: group.Name, Total: len(grades)}
	for _, grade := range grades {
		score := grade.TotalScore
		switch {
		case score.LessThan(bucketFloor), score.GreaterThan(bucketCeiling):
		case score.LessThan(bucketHigh):
			dist.Basic++
		case score.LessThan(bucketTop):
			dist.High++
		default:
			dist.Superior++
		}
	}
	return dist
}
