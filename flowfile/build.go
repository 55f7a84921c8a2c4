package flowfile

import (
	"fmt"

	"github.com/fogfish/opts"
	"github.com/mitchellh/mapstructure"

	"github.com/casualjim/loom/flow"
	"github.com/casualjim/loom/messages"
)

// nodeSpec is one YAML node: the common fields plus whatever the kind needs.
// The kind specific fields stay in Rest until the builder knows which shape
// to decode them into.
type nodeSpec struct {
	Kind string         `yaml:"kind" mapstructure:"kind"`
	ID   string         `yaml:"id" mapstructure:"id"`
	Rest map[string]any `yaml:",inline" mapstructure:",remain"`
}

type saySpec struct {
	Text string `mapstructure:"text"`
	Role string `mapstructure:"role"`
}

type askSpec struct {
	Prompt  string `mapstructure:"prompt"`
	Default string `mapstructure:"default"`
	Into    string `mapstructure:"into"`
}

type containerSpec struct {
	Children []nodeSpec `mapstructure:"children"`
}

type loopSpec struct {
	Children  []nodeSpec     `mapstructure:"children"`
	MaxPasses int            `mapstructure:"max_passes"`
	Until     *predicateSpec `mapstructure:"until"`
}

type branchSpec struct {
	When *predicateSpec `mapstructure:"when"`
	Then *nodeSpec      `mapstructure:"then"`
	Else *nodeSpec      `mapstructure:"else"`
}

type gotoSpec struct {
	Target string `mapstructure:"target"`
}

type subSpec struct {
	Body        *nodeSpec `mapstructure:"body"`
	Init        string    `mapstructure:"init"`
	InitLast    int       `mapstructure:"init_last"`
	Squash      string    `mapstructure:"squash"`
	SquashRoles []string  `mapstructure:"squash_roles"`
}

type predicateSpec struct {
	Var          string         `mapstructure:"var"`
	Equals       any            `mapstructure:"equals"`
	Set          bool           `mapstructure:"set"`
	LastContains string         `mapstructure:"last_contains"`
	Not          *predicateSpec `mapstructure:"not"`
}

var kinds = map[string]struct{}{
	"say": {}, "generate": {}, "ask": {}, "sequence": {}, "loop": {},
	"branch": {}, "goto": {}, "break": {}, "terminate": {}, "subroutine": {},
}

type builder struct {
	seen map[string]struct{}
}

func (b *builder) claim(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s node has no id", flow.ErrConfig, kind)
	}
	if _, dup := b.seen[id]; dup {
		return fmt.Errorf("%w: duplicate node id %q", flow.ErrConfig, id)
	}
	b.seen[id] = struct{}{}
	return nil
}

func decodeSpec[T any](spec nodeSpec) (T, error) {
	var out T
	if err := mapstructure.Decode(spec.Rest, &out); err != nil {
		return out, fmt.Errorf("%w: node %q: %v", flow.ErrConfig, spec.ID, err)
	}
	return out, nil
}

func (b *builder) build(spec nodeSpec) (flow.Template, error) {
	if spec.Kind == "" {
		return nil, fmt.Errorf("%w: node %q has no kind", flow.ErrConfig, spec.ID)
	}
	if _, known := kinds[spec.Kind]; !known {
		return nil, fmt.Errorf("%w: unknown node kind %q", flow.ErrConfig, spec.Kind)
	}

	// Terminate is a shared singleton with a reserved id, it is never
	// claimed and a flowfile may use it any number of times.
	if spec.Kind == "terminate" {
		if spec.ID != "" && spec.ID != flow.TerminateID {
			return nil, fmt.Errorf("%w: terminate nodes cannot take id %q", flow.ErrConfig, spec.ID)
		}
		return flow.Terminate(), nil
	}

	if err := b.claim(spec.Kind, spec.ID); err != nil {
		return nil, err
	}

	switch spec.Kind {
	case "say":
		s, err := decodeSpec[saySpec](spec)
		if err != nil {
			return nil, err
		}
		if s.Text == "" {
			return nil, fmt.Errorf("%w: say %q has no text", flow.ErrConfig, spec.ID)
		}
		node := flow.NewEmit(spec.ID, s.Text)
		if s.Role != "" {
			node.As(messages.Role(s.Role))
		}
		return node, nil

	case "generate":
		return flow.NewGenerate(spec.ID), nil

	case "ask":
		s, err := decodeSpec[askSpec](spec)
		if err != nil {
			return nil, err
		}
		if s.Prompt == "" {
			return nil, fmt.Errorf("%w: ask %q has no prompt", flow.ErrConfig, spec.ID)
		}
		node := flow.NewAsk(spec.ID, s.Prompt)
		if s.Default != "" {
			node.Default(s.Default)
		}
		if s.Into != "" {
			node.Into(s.Into)
		}
		return node, nil

	case "sequence":
		s, err := decodeSpec[containerSpec](spec)
		if err != nil {
			return nil, err
		}
		children, err := b.buildAll(s.Children)
		if err != nil {
			return nil, err
		}
		return flow.NewSequence(spec.ID, children...), nil

	case "loop":
		s, err := decodeSpec[loopSpec](spec)
		if err != nil {
			return nil, err
		}
		children, err := b.buildAll(s.Children)
		if err != nil {
			return nil, err
		}
		node := flow.NewLoop(spec.ID, children...)
		if s.MaxPasses > 0 {
			node.MaxPasses(s.MaxPasses)
		}
		if s.Until != nil {
			pred, err := buildPredicate(*s.Until)
			if err != nil {
				return nil, fmt.Errorf("loop %q until: %w", spec.ID, err)
			}
			node.Until(pred)
		}
		return node, nil

	case "branch":
		s, err := decodeSpec[branchSpec](spec)
		if err != nil {
			return nil, err
		}
		if s.When == nil {
			return nil, fmt.Errorf("%w: branch %q has no when predicate", flow.ErrConfig, spec.ID)
		}
		if s.Then == nil {
			return nil, fmt.Errorf("%w: branch %q has no then node", flow.ErrConfig, spec.ID)
		}
		cond, err := buildPredicate(*s.When)
		if err != nil {
			return nil, fmt.Errorf("branch %q when: %w", spec.ID, err)
		}
		then, err := b.build(*s.Then)
		if err != nil {
			return nil, err
		}
		node := flow.NewBranch(spec.ID, cond, then)
		if s.Else != nil {
			alt, err := b.build(*s.Else)
			if err != nil {
				return nil, err
			}
			node.Else(alt)
		}
		return node, nil

	case "goto":
		s, err := decodeSpec[gotoSpec](spec)
		if err != nil {
			return nil, err
		}
		if s.Target == "" {
			return nil, fmt.Errorf("%w: goto %q has no target", flow.ErrConfig, spec.ID)
		}
		return flow.NewGoto(spec.ID, s.Target), nil

	case "break":
		return flow.NewBreak(spec.ID), nil

	case "subroutine":
		s, err := decodeSpec[subSpec](spec)
		if err != nil {
			return nil, err
		}
		if s.Body == nil {
			return nil, fmt.Errorf("%w: subroutine %q has no body", flow.ErrConfig, spec.ID)
		}
		inner, err := b.build(*s.Body)
		if err != nil {
			return nil, err
		}
		options, err := subroutineOptions(spec.ID, s)
		if err != nil {
			return nil, err
		}
		return flow.NewSubroutine(spec.ID, inner, options...)
	}

	// Unreachable, every known kind is handled above.
	return nil, fmt.Errorf("%w: unknown node kind %q", flow.ErrConfig, spec.Kind)
}

func (b *builder) buildAll(specs []nodeSpec) ([]flow.Template, error) {
	nodes := make([]flow.Template, 0, len(specs))
	for _, spec := range specs {
		node, err := b.build(spec)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func buildPredicate(spec predicateSpec) (flow.Predicate, error) {
	switch {
	case spec.Not != nil:
		inner, err := buildPredicate(*spec.Not)
		if err != nil {
			return nil, err
		}
		return flow.Not(inner), nil
	case spec.LastContains != "":
		return flow.LastMessageContains(spec.LastContains), nil
	case spec.Var != "":
		if spec.Equals != nil {
			return flow.VarEquals(spec.Var, spec.Equals), nil
		}
		if spec.Set {
			return flow.VarSet(spec.Var), nil
		}
		return nil, fmt.Errorf("%w: predicate on %q needs equals or set", flow.ErrConfig, spec.Var)
	default:
		return nil, fmt.Errorf("%w: empty predicate", flow.ErrConfig)
	}
}

func subroutineOptions(id string, s subSpec) ([]opts.Option[flow.Subroutine], error) {
	var options []opts.Option[flow.Subroutine]

	switch s.Init {
	case "", "clean":
		// CleanSlate is the subroutine default.
	case "system":
		options = append(options, flow.WithInit(flow.InheritSystem()))
	case "last":
		if s.InitLast < 1 {
			return nil, fmt.Errorf("%w: subroutine %q: init last needs init_last >= 1", flow.ErrConfig, id)
		}
		options = append(options, flow.WithInit(flow.InheritLast(s.InitLast)))
	default:
		return nil, fmt.Errorf("%w: subroutine %q: unknown init strategy %q", flow.ErrConfig, id, s.Init)
	}

	switch s.Squash {
	case "", "last":
		// KeepLast is the subroutine default.
	case "all":
		options = append(options, flow.WithSquash(flow.KeepAll()))
	case "roles":
		if len(s.SquashRoles) == 0 {
			return nil, fmt.Errorf("%w: subroutine %q: squash roles needs squash_roles", flow.ErrConfig, id)
		}
		roles := make([]messages.Role, len(s.SquashRoles))
		for i, r := range s.SquashRoles {
			role := messages.Role(r)
			if !role.Valid() {
				return nil, fmt.Errorf("%w: subroutine %q: unknown role %q", flow.ErrConfig, id, r)
			}
			roles[i] = role
		}
		options = append(options, flow.WithSquash(flow.KeepRoles(roles...)))
	case "summarize":
		options = append(options, flow.WithSquash(flow.SummarizeWithModel()))
	case "select":
		options = append(options, flow.WithSquash(flow.SelectWithModel()))
	default:
		return nil, fmt.Errorf("%w: subroutine %q: unknown squash strategy %q", flow.ErrConfig, id, s.Squash)
	}

	return options, nil
}
