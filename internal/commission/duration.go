package commission

import "strings"

// Duration 订阅时长分档
type Duration string

const (
	DurationTrial      Duration = "trial"
	DurationOneMonth   Duration = "one_month"
	DurationThreeMonth Duration = "three_month"
	DurationSixMonth   Duration = "six_month"
	DurationYearly     Duration = "yearly"
	DurationUnknown    Duration = "unknown"
)

var AllDurations = []Duration{
	DurationTrial,
	DurationOneMonth,
	DurationThreeMonth,
	DurationSixMonth,
	DurationYearly,
	DurationUnknown,
}

// key 已去掉空白并转小写
var durationAliases = map[string]Duration{
	"trial":       DurationTrial,
	"free_trial":  DurationTrial,
	"freetrial":   DurationTrial,
	"7天":          DurationTrial,
	"7日":          DurationTrial,
	"7days":       DurationTrial,
	"7day":        DurationTrial,
	"7天免费":        DurationTrial,
	"one_month":   DurationOneMonth,
	"1个月":         DurationOneMonth,
	"1月":          DurationOneMonth,
	"1month":      DurationOneMonth,
	"1months":     DurationOneMonth,
	"monthly":     DurationOneMonth,
	"month":       DurationOneMonth,
	"30天":         DurationOneMonth,
	"30days":      DurationOneMonth,
	"three_month": DurationThreeMonth,
	"3个月":         DurationThreeMonth,
	"3月":          DurationThreeMonth,
	"3month":      DurationThreeMonth,
	"3months":     DurationThreeMonth,
	"quarterly":   DurationThreeMonth,
	"six_month":   DurationSixMonth,
	"6个月":         DurationSixMonth,
	"6月":          DurationSixMonth,
	"6month":      DurationSixMonth,
	"6months":     DurationSixMonth,
	"half_year":   DurationSixMonth,
	"半年":          DurationSixMonth,
	"yearly":      DurationYearly,
	"1年":          DurationYearly,
	"一年":          DurationYearly,
	"12个月":        DurationYearly,
	"1year":       DurationYearly,
	"12months":    DurationYearly,
	"annual":      DurationYearly,
	"annually":    DurationYearly,
}

// ParseDuration 大小写不敏感的多别名匹配，无法识别时返回 DurationUnknown
func ParseDuration(raw string) Duration {
	key := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	if d, ok := durationAliases[key]; ok {
		return d
	}
	return DurationUnknown
}
