package report

import (
	"fmt"
	"time"
)

// SuggestedTitles returns ready-made report titles derived from now, in the
// order they should be offered.
func SuggestedTitles(now time.Time) []string {
	return []string{
		fmt.Sprintf("%s 设备维修检查报告", now.Format("2006年01月")),
		fmt.Sprintf("%s 维修作业报告", now.Format("2006-01-02")),
		"设备保养维护记录",
		"故障排查维修报告",
		"定期检修报告",
	}
}
