package categorization

import (
	"regexp"

	"noctua/internal/core"
)

// filteredSenders are transactional senders whose mail never becomes an article.
var filteredSenders = map[string]bool{
	"google":        true,
	"google one":    true,
	"google play":   true,
	"google gemini": true,
	"gmail team":    true,
	"notebooklm":    true,
	"noreply":       true,
	"no-reply":      true,
	"substack":      true,
}

type sourceRule struct {
	key   string
	topic core.Topic
}

// sourceTopics maps single-topic newsletters to their segment. Order matters:
// the first key that contains, or is contained by, the source wins.
var sourceTopics = []sourceRule{
	{"the neuron", core.TopicTech},
	{"cassidoo", core.TopicTech},
	{"tldr", core.TopicTech},
	{"ben's bites", core.TopicTech},
	{"the verge", core.TopicTech},
	{"peter steinberger", core.TopicTech},
	{"lenny's newsletter", core.TopicProductManagement},
	{"the product compass", core.TopicProductManagement},
	{"department of product", core.TopicProductManagement},
	{"aakash gupta", core.TopicProductManagement},
	{"the athletic pulse", core.TopicEntertainment},
	{"the athletic", core.TopicEntertainment},
	{"the hollywood reporter", core.TopicEntertainment},
	{"thr breaking news", core.TopicEntertainment},
	{"thr today in entertainment", core.TopicEntertainment},
	{"polygon", core.TopicEntertainment},
	{"kirkus reviews", core.TopicEntertainment},
	{"morning chalk up", core.TopicCrossFit},
	{"wodwell", core.TopicCrossFit},
	{"the hindu", core.TopicIndianPolitics},
	{"the hindu on tech", core.TopicIndianPolitics},
	{"the indian express", core.TopicIndianPolitics},
	{"mint", core.TopicIndianPolitics},
	{"the chai brief", core.TopicIndianPolitics},
	{"chai brief", core.TopicIndianPolitics},
	{"capitol hill seattle", core.TopicSeattle},
	{"capitolhillseattle.com", core.TopicSeattle},
}

// alertPattern extracts the label of a Google Alerts sender, e.g. "Google Alerts (Arsenal)".
var alertPattern = regexp.MustCompile(`google alerts?\s*\((.+?)\)`)

var alertTopics = map[string]core.Topic{
	"seattle":        core.TopicSeattle,
	"arsenal":        core.TopicArsenal,
	"badminton":      core.TopicBadminton,
	"formula 1":      core.TopicFormula1,
	"f1":             core.TopicFormula1,
	"india cricket":  core.TopicIndianCricket,
	"indian cricket": core.TopicIndianCricket,
	"cricket":        core.TopicIndianCricket,
	"max verstappen": core.TopicFormula1,
	"verstappen":     core.TopicFormula1,
	"crossfit":       core.TopicCrossFit,
}

// topicKeywords are matched case-insensitively. Each pattern counts once no
// matter how often it occurs.
var topicKeywords = map[core.Topic][]string{
	core.TopicWorldPolitics: {
		`\bUN\b`, `\bNATO\b`, `\bEU\b`, `\bglobal\b`,
		`\bwar\b`, `\bconflict\b`, `\bUkraine\b`, `\bRussia\b`,
		`\bChina\b`, `\bIsrael\b`, `\bPalestine\b`, `\bGaza\b`,
		`\bIran\b`, `\bgeopolit`, `\bceasefire\b`, `\bdiplomat`,
	},
	core.TopicUSPolitics: {
		`\bCongress\b`, `\bSenate\b`, `\bWhite House\b`,
		`\bPresident\b`, `\bRepublican`, `\bDemocrat`,
		`\bTrump\b`, `\bBiden\b`, `\belection\b`, `\bfederal\b`,
	},
	core.TopicIndianPolitics: {
		`\bIndia\b.*\b(?:government|politic|minister|parliament)`,
		`\bModi\b`, `\bBJP\b`, `\bDelhi\b`,
		`\bLok Sabha\b`, `\bRajya Sabha\b`, `\bRBI\b`,
	},
	core.TopicTech: {
		`\bAI\b`, `\bartificial intelligence\b`, `\bGPT\b`,
		`\bOpenAI\b`, `\btech\b`, `\bsoftware\b`, `\bLLM\b`,
		`\bstartup\b`, `\bcrypto\b`, `\bmachine learning\b`,
	},
	core.TopicEntertainment: {
		`\bmovie\b`, `\bfilm\b`, `\bNetflix\b`, `\bstreaming\b`,
		`\bbox office\b`, `\bOscar`, `\bmusic\b`, `\bconcert\b`,
		`\bHollywood\b`, `\bcelebrit`,
	},
	core.TopicCrossFit: {`\bCrossFit\b`, `\bWOD\b`, `\bAMRAP\b`, `\bEMOM\b`},
	core.TopicFormula1: {
		`\bFormula 1\b`, `\bF1\b`, `\bGrand Prix\b`,
		`\bVerstappen\b`, `\bHamilton\b`, `\bMcLaren\b`,
	},
	core.TopicArsenal: {`\bArsenal\b`, `\bGunners\b`, `\bArteta\b`, `\bEmirates Stadium\b`},
	core.TopicIndianCricket: {
		`\bIPL\b`, `\bBCCI\b`, `\bIndia\b.*\bcricket`,
		`\bcricket\b.*\bIndia`, `\bKohli\b`, `\bBumrah\b`,
	},
	core.TopicBadminton: {`\bbadminton\b`, `\bBWF\b`, `\bSindhu\b`, `\bSrikanth\b`},
	core.TopicSports: {
		`\bNFL\b`, `\bNBA\b`, `\bMLB\b`, `\bOlympic`,
		`\btennis\b`, `\bgolf\b`, `\bUFC\b`, `\bsoccer\b`,
	},
	core.TopicSeattle: {
		`\bSeattle\b`, `\bPuget Sound\b`, `\bKing County\b`,
		`\bSeahawks\b`, `\bCapitol Hill\b`, `\bWA\b`,
		`\bPierce County\b`, `\bTacoma\b`, `\bBellevue\b`,
	},
}

type topicPatterns struct {
	topic    core.Topic
	patterns []*regexp.Regexp
}

// compileKeywords returns the keyword table in topic declaration order, skipping Other.
func compileKeywords() []topicPatterns {
	var out []topicPatterns
	for _, topic := range core.AllTopics() {
		if topic == core.TopicOther {
			continue
		}
		raw := topicKeywords[topic]
		compiled := make([]*regexp.Regexp, 0, len(raw))
		for _, p := range raw {
			compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
		}
		out = append(out, topicPatterns{topic: topic, patterns: compiled})
	}
	return out
}
