package tutor

import (
	"strings"

	"github.com/ashureev/tutorcito/internal/domain"
)

// Branch names the rule that produced a reply.
type Branch string

const (
	BranchHTML     Branch = "html"
	BranchCSS      Branch = "css"
	BranchJS       Branch = "js"
	BranchProject  Branch = "project"
	BranchFallback Branch = "fallback"
)

// Reply is the result of matching a learner message.
type Reply struct {
	Text   string
	Topics []domain.Topic
	Deltas domain.Deltas
	Branch Branch
}

// Canned reply texts.
const (
	replyHTML     = "¡Excelente! HTML es la estructura de toda página web. Te recomiendo practicar con elementos semánticos como <header>, <nav>, <main>, <section> y <footer>. ¿Te gustaría que revisemos algún concepto específico de HTML?"
	replyCSS      = "¡CSS es genial! Es lo que hace que las páginas web se vean hermosas. Te sugiero practicar Flexbox, Grid y animaciones CSS. ¿Hay algún concepto de CSS que te resulte difícil?"
	replyJS       = "¡JavaScript es el corazón de la interactividad web! Te recomiendo dominar conceptos como funciones, eventos del DOM, async/await y ES6+. ¿Qué aspecto de JavaScript te gustaría explorar?"
	replyProject  = "¡Perfecto! Los proyectos son la mejor forma de aprender. Te sugiero crear una landing page responsive que combine HTML semántico, CSS Grid/Flexbox y JavaScript para interactividad. ¿Te parece bien empezar con algo así?"
	replyFallback = "Entiendo que quieres aprender más sobre desarrollo web. ¿Podrías ser más específico sobre HTML, CSS o JavaScript? También puedo sugerirte proyectos prácticos para combinar estas tecnologías."
)

// Points awarded per matched branch.
const (
	topicPoints   = 10
	projectPoints = 5
)

type rule struct {
	keywords []string
	build    func() Reply
}

// rules are evaluated in order; the first rule with a matching keyword wins.
var rules = []rule{
	{
		keywords: []string{"html"},
		build: func() Reply {
			return single(BranchHTML, domain.TopicHTML, replyHTML)
		},
	},
	{
		keywords: []string{"css"},
		build: func() Reply {
			return single(BranchCSS, domain.TopicCSS, replyCSS)
		},
	},
	{
		keywords: []string{"javascript", "js"},
		build: func() Reply {
			return single(BranchJS, domain.TopicJS, replyJS)
		},
	},
	{
		keywords: []string{"proyecto", "práctica"},
		build: func() Reply {
			deltas := make(domain.Deltas, 3)
			for _, t := range domain.AllTopics() {
				deltas[t] = projectPoints
			}
			return Reply{
				Text:   replyProject,
				Topics: domain.AllTopics(),
				Deltas: deltas,
				Branch: BranchProject,
			}
		},
	},
}

func single(branch Branch, topic domain.Topic, text string) Reply {
	return Reply{
		Text:   text,
		Topics: []domain.Topic{topic},
		Deltas: domain.Deltas{topic: topicPoints},
		Branch: branch,
	}
}

// GenerateReply maps free text to a canned reply using case-insensitive
// substring matching. It has no side effects and never fails.
func GenerateReply(input string) Reply {
	lower := strings.ToLower(input)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.build()
			}
		}
	}
	return Reply{Text: replyFallback, Branch: BranchFallback}
}

// IsBlank reports whether a chat submission should be ignored.
func IsBlank(input string) bool {
	return strings.TrimSpace(input) == ""
}
