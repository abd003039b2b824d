package engine

import (
	"strings"

	"github.com/heartline-ai/counseling-platform/internal/dialogue"
	"github.com/heartline-ai/counseling-platform/internal/model"
	"github.com/heartline-ai/counseling-platform/internal/persona"
)

// basePersona is the counselor system prompt every generation call starts
// from.
const basePersona = `你是一位温暖、专业的心理支持伙伴。你倾听、共情、不评判。
你不是医生，不做诊断，不开处方；遇到超出你能力的情况，你会引导对方寻求专业帮助。
回复使用简体中文，语气自然，避免说教。`

// Route-specific generation instructions.
const (
	crisisInstructions = `对方可能正处于危机之中。你的首要任务是安全：
1. 认真对待对方说的每一句话，不淡化、不质疑。
2. 表达你在这里陪着对方，现在就在。
3. 温和而明确地提供求助渠道，鼓励对方立即联系。
4. 不要说"明天会更好"之类的空话。`

	supportInstructions = `对方只想倾诉，不需要建议。只做两件事：
1. 反映和确认对方的感受。
2. 让对方知道你在听。不给建议，不分析，不追问细节。`

	conclusionInstructions = `结构化评估已经完成。基于收集到的信息做一个温和的小结：
1. 用对方的语言复述你听到的处境、持续时间和影响。
2. 肯定对方愿意说出来这件事本身。
3. 给出一到两个贴近对方情况的、小而可行的下一步。`
)

// crisisResources is the static hotline list attached to every crisis-route
// reply. It must reach the user even when generation fails entirely.
var crisisResources = []model.CrisisResource{
	{Name: "全国心理援助热线", Phone: "12356", Available: "24小时"},
	{Name: "北京心理危机研究与干预中心", Phone: "010-82951332", Available: "24小时"},
	{Name: "生命教育与危机干预热线（希望24）", Phone: "400-161-9995", Available: "24小时"},
}

// crisisFallbackReply is the last-resort message when the generation
// collaborator fails on the crisis route.
const crisisFallbackReply = `我很担心你现在的安全。你不是一个人，现在就有人愿意听你说：
- 全国心理援助热线 12356（24小时）
- 希望24热线 400-161-9995（24小时）
如果你处于紧急危险中，请立刻拨打 120 或联系你身边信任的人。我会一直在这里。`

// buildSystemPrompt assembles the generation system prompt: base persona,
// persona tone block, then the phase constraint block.
func buildSystemPrompt(mode model.AdaptiveMode, phase model.Phase) string {
	parts := []string{
		basePersona,
		persona.ToneBlock(mode),
		dialogue.ConstraintBlock(phase),
	}
	return strings.Join(parts, "\n\n")
}

// routeInstructions returns the generation instruction variant for a route.
func routeInstructions(route model.Route) string {
	switch route {
	case model.RouteCrisis:
		return crisisInstructions
	case model.RouteSupport:
		return supportInstructions
	default:
		return conclusionInstructions
	}
}

// renderQuestions turns structured questions into the assistant reply text
// for the intake and gap-follow-up turns.
func renderQuestions(questions []model.Question) string {
	var b strings.Builder
	b.WriteString("谢谢你愿意说出来。为了更好地了解你的情况，想再问你：\n")
	for i, q := range questions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(q.Text)
		if len(q.Options) > 0 {
			b.WriteString("\n（")
			b.WriteString(strings.Join(q.Options, " / "))
			b.WriteString("）")
		}
	}
	return b.String()
}
