package options

// Defaults returns the built-in option specs at global-server scope,
// named and typed per SPEC_FULL.md's options section. Values loaded from
// the TOML config override these at server start.
func Defaults() map[string]Spec {
	return map[string]Spec{
		"history-limit": {
			Name: "history-limit", Kind: KindNumber,
			Default: Value{Kind: KindNumber, Number: 2000},
		},
		"base-index": {
			Name: "base-index", Kind: KindNumber,
			Default: Value{Kind: KindNumber, Number: 0},
		},
		"pane-base-index": {
			Name: "pane-base-index", Kind: KindNumber,
			Default: Value{Kind: KindNumber, Number: 0},
		},
		"renumber-windows": {
			Name: "renumber-windows", Kind: KindFlag,
			Default: Value{Kind: KindFlag, Flag: false},
		},
		"aggressive-resize": {
			Name: "aggressive-resize", Kind: KindFlag,
			Default: Value{Kind: KindFlag, Flag: false},
		},
		"pane-min-size": {
			Name: "pane-min-size", Kind: KindNumber,
			Default: Value{Kind: KindNumber, Number: 1},
		},
		"bell-action": {
			Name: "bell-action", Kind: KindChoice,
			Default: Value{Kind: KindChoice, String: "any", Choices: []string{"any", "none", "current", "other"}},
		},
		"visual-bell": {
			Name: "visual-bell", Kind: KindFlag,
			Default: Value{Kind: KindFlag, Flag: false},
		},
		"activity-action": {
			Name: "activity-action", Kind: KindChoice,
			Default: Value{Kind: KindChoice, String: "other", Choices: []string{"any", "none", "current", "other"}},
		},
		"monitor-activity": {
			Name: "monitor-activity", Kind: KindFlag,
			Default: Value{Kind: KindFlag, Flag: false},
		},
		"silence-interval": {
			Name: "silence-interval", Kind: KindNumber,
			Default: Value{Kind: KindNumber, Number: 0},
		},
		"remain-on-exit": {
			Name: "remain-on-exit", Kind: KindFlag,
			Default: Value{Kind: KindFlag, Flag: false},
		},
		"destroy-unattached": {
			Name: "destroy-unattached", Kind: KindFlag,
			Default: Value{Kind: KindFlag, Flag: false},
		},
		"default-layout": {
			Name: "default-layout", Kind: KindChoice,
			Default: Value{Kind: KindChoice, String: "even-horizontal",
				Choices: []string{"even-horizontal", "even-vertical", "main-horizontal", "main-vertical", "tiled"}},
		},
	}
}
