package issueclassifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shaiso/devpipeline/internal/domain"
)

// Issue is the subset of upstream-provider issue fields the classifier
// needs.
type Issue struct {
	Number int
	Title  string
	Body   string
	Labels []string
}

// Classification is the output of classifying one issue.
type Classification struct {
	Agent      domain.AgentKind
	Confidence float64
	Scores     map[domain.AgentKind]float64
}

const (
	labelWeight = 3.0
	titleWeight = 2.0
	bodyWeight  = 1.0
)

// classifiableKinds are the agent kinds the original label/keyword model
// scores over (product-manager and project-manager tasks are not
// issue-classified — they are created directly from user intent, not
// from upstream issues).
var classifiableKinds = []domain.AgentKind{
	domain.AgentBackend,
	domain.AgentFrontend,
	domain.AgentDatabase,
	domain.AgentDevOps,
	domain.AgentQA,
}

// labelToAgent is the curated label→agent map (spec §4.5 "label match").
var labelToAgent = map[string]domain.AgentKind{
	"backend": domain.AgentBackend, "api": domain.AgentBackend, "server": domain.AgentBackend,
	"authentication": domain.AgentBackend, "authorization": domain.AgentBackend,
	"security": domain.AgentBackend, "endpoint": domain.AgentBackend,

	"frontend": domain.AgentFrontend, "ui": domain.AgentFrontend, "ux": domain.AgentFrontend,
	"component": domain.AgentFrontend, "design": domain.AgentFrontend, "css": domain.AgentFrontend,
	"responsive": domain.AgentFrontend,

	"database": domain.AgentDatabase, "db": domain.AgentDatabase, "schema": domain.AgentDatabase,
	"migration": domain.AgentDatabase, "query": domain.AgentDatabase, "model": domain.AgentDatabase,

	"devops": domain.AgentDevOps, "deployment": domain.AgentDevOps, "infrastructure": domain.AgentDevOps,
	"ci/cd": domain.AgentDevOps, "docker": domain.AgentDevOps, "kubernetes": domain.AgentDevOps,
	"monitoring": domain.AgentDevOps,

	"qa": domain.AgentQA, "testing": domain.AgentQA, "test": domain.AgentQA, "bug": domain.AgentQA,
}

// keywordPatternSource is the per-agent regex list scored against title
// (weight 2.0/hit) and body (weight 1.0/hit).
var keywordPatternSource = map[domain.AgentKind][]string{
	domain.AgentBackend: {
		`api\b`, `endpoint`, `route`, `service`, `backend`,
		`auth(entication|orization)?`, `server`, `rest`, `graphql`,
		`business logic`, `validation`, `middleware`,
	},
	domain.AgentFrontend: {
		`ui\b`, `ux\b`, `component`, `page`, `screen`, `button`,
		`form`, `modal`, `dashboard`, `menu`, `nav`, `layout`,
		`react`, `vue`, `angular`, `frontend`, `responsive`,
	},
	domain.AgentDatabase: {
		`database`, `\bdb\b`, `schema`, `table`, `column`, `index`,
		`migration`, `query`, `model`, `relation`, `foreign key`,
		`postgres`, `mysql`, `sqlite`, `orm`, `alembic`,
	},
	domain.AgentDevOps: {
		`deploy`, `docker`, `kubernetes`, `container`, `ci/cd`,
		`pipeline`, `nginx`, `ssl`, `certificate`, `domain`,
		`server setup`, `infrastructure`, `scaling`, `monitoring`,
	},
	domain.AgentQA: {
		`test(ing)?`, `bug`, `fix`, `broken`, `error`,
		`coverage`, `assertion`, `jest`, `pytest`, `cypress`,
		`regression`, `quality`,
	},
}

// Classifier holds the compiled keyword patterns. Regexes are compiled
// once at construction time (New); an invalid pattern is a startup
// failure.
type Classifier struct {
	patterns map[domain.AgentKind][]*regexp.Regexp
}

// New compiles every keyword pattern. An invalid regex anywhere in the
// source tables is a startup failure, matching spec §4.5.
func New() (*Classifier, error) {
	compiled := make(map[domain.AgentKind][]*regexp.Regexp, len(keywordPatternSource))
	for kind, patterns := range keywordPatternSource {
		res := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q for %s: %w", p, kind, err)
			}
			res = append(res, re)
		}
		compiled[kind] = res
	}
	return &Classifier{patterns: compiled}, nil
}

// Classify scores issue against every classifiable agent kind and
// returns the winner. Classify is a pure function: the same issue always
// yields the same Classification (spec invariant 5).
func (c *Classifier) Classify(issue Issue) Classification {
	scores := make(map[domain.AgentKind]float64, len(classifiableKinds))
	for _, kind := range classifiableKinds {
		scores[kind] = 0
	}

	for _, label := range issue.Labels {
		if agent, ok := labelToAgent[strings.ToLower(label)]; ok {
			if _, tracked := scores[agent]; tracked {
				scores[agent] += labelWeight
			}
		}
	}

	title := strings.ToLower(issue.Title)
	body := strings.ToLower(issue.Body)
	for _, kind := range classifiableKinds {
		for _, re := range c.patterns[kind] {
			if re.MatchString(title) {
				scores[kind] += titleWeight
			}
			if re.MatchString(body) {
				scores[kind] += bodyWeight
			}
		}
	}

	var best domain.AgentKind
	bestScore := -1.0
	total := 0.0
	for _, kind := range classifiableKinds {
		total += scores[kind]
		if scores[kind] > bestScore {
			bestScore = scores[kind]
			best = kind
		}
	}

	confidence := 0.5
	if total > 0 {
		confidence = bestScore / total
	}

	return Classification{Agent: best, Confidence: confidence, Scores: scores}
}

// ClassifyBatch maps Classify over every issue — no cross-issue state.
func (c *Classifier) ClassifyBatch(issues []Issue) []Classification {
	out := make([]Classification, len(issues))
	for i, issue := range issues {
		out[i] = c.Classify(issue)
	}
	return out
}
