// Package triage classifies free-text risk and audits upstream safety
// labels. All classification is literal substring matching over curated
// phrase tiers; it is a heuristic safety layer, not a clinical authority.
package triage

// Vocabulary holds the ordered phrase tiers the analyzer matches against.
// It is immutable after construction so alternate vocabularies or languages
// can be injected without touching the matching logic.
type Vocabulary struct {
	// CrisisPhrases is explicit self-harm/suicide vocabulary. Any hit
	// classifies the message as crisis.
	CrisisPhrases []string

	// HighPhrases expresses hopelessness or helplessness.
	HighPhrases []string

	// MediumPhrases is generic negative affect.
	MediumPhrases []string

	// LowPhrases is neutral daily-life vocabulary. Diagnostic only; a hit
	// is recorded for logging and never elevates risk.
	LowPhrases []string
}

// DefaultVocabulary returns the production Simplified-Chinese tiers.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		CrisisPhrases: []string{
			"自杀", "想死", "不想活", "活不下去", "结束生命", "结束自己",
			"自残", "割腕", "跳楼", "跳桥", "上吊", "安眠药", "轻生",
			"了结自己", "离开这个世界", "遗书",
		},
		HighPhrases: []string{
			"绝望", "无助", "没有希望", "看不到希望", "撑不下去", "崩溃",
			"没有意义", "活着没意思", "没人在乎", "走投无路", "熬不过去",
		},
		MediumPhrases: []string{
			"难过", "伤心", "焦虑", "压抑", "压力很大", "失眠", "睡不着",
			"烦躁", "心情不好", "疲惫", "掏空", "提不起劲", "没动力", "孤独",
		},
		LowPhrases: []string{
			"工作", "学习", "考试", "朋友", "家人", "同事", "天气", "吃饭",
		},
	}
}

// GuardRules holds the curated hard-risk patterns and false-positive
// exclusions used when auditing an upstream safety label.
type GuardRules struct {
	// HardPatterns are literal phrases that justify keeping an urgent or
	// crisis label.
	HardPatterns []string

	// Exclusions are colloquialisms that contain risk-looking characters
	// but carry no risk ("died laughing", "system crashed"). Matched spans
	// are removed before scanning for hard patterns.
	Exclusions []string
}

// DefaultGuardRules returns the production audit rules.
func DefaultGuardRules() GuardRules {
	return GuardRules{
		HardPatterns: []string{
			"自杀", "想死", "不想活", "活不下去", "结束生命", "自残",
			"割腕", "跳楼", "上吊", "轻生", "了结自己", "离开这个世界",
		},
		Exclusions: []string{
			// colloquial "X死了" intensifiers
			"笑死", "累死", "饿死", "吓死", "困死", "热死", "冷死", "气死", "忙死",
			// technology, not people
			"系统崩溃", "程序崩溃", "电脑崩溃", "死机",
			// casual farewells
			"再见", "拜拜", "下次见", "明天见",
		},
	}
}
