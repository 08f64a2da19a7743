package options

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestMostSpecificScopeWins(t *testing.T) {
	specs := Defaults()
	global := Table{}
	session := Table{}
	pane := Table{"history-limit": {Kind: KindNumber, Number: 500}}

	tree := NewTree(specs, pane, session, global)
	assert.Equal(t, tree.Number("history-limit"), int64(500))
}

func TestFallsBackToDefault(t *testing.T) {
	specs := Defaults()
	tree := NewTree(specs, Table{}, Table{})
	assert.Equal(t, tree.Number("history-limit"), int64(2000))
}

func TestSetRejectsUnknownOption(t *testing.T) {
	specs := Defaults()
	scope := Table{}
	err := Set(specs, scope, "not-a-real-option", Value{Kind: KindFlag, Flag: true})
	assert.ErrorContains(t, err, "unknown option")
}

func TestSetRejectsInvalidChoice(t *testing.T) {
	specs := Defaults()
	scope := Table{}
	err := Set(specs, scope, "bell-action", Value{Kind: KindChoice, String: "bogus"})
	assert.ErrorContains(t, err, "invalid choice")
}

func TestUnsetFallsThrough(t *testing.T) {
	specs := Defaults()
	global := Table{}
	pane := Table{}
	assert.NilError(t, Set(specs, pane, "visual-bell", Value{Kind: KindFlag, Flag: true}))
	tree := NewTree(specs, pane, global)
	assert.Assert(t, tree.Flag("visual-bell"))

	Unset(pane, "visual-bell")
	tree = NewTree(specs, pane, global)
	assert.Assert(t, !tree.Flag("visual-bell"))
}
