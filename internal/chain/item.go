package chain

import "strings"

// LifecycleHook runs immediately before or after an item executes. It may
// change the item's command.
type LifecycleHook func(item *Item)

// OutcomeHook receives the captured output of an item: stdout on the
// success path, stderr on the failure path. It may rewrite *output; the
// rewritten value is what the chain records as its last result or error.
// The returned Decision says whether the chain moves on to the next item.
type OutcomeHook func(item *Item, output *string) Decision

// Item is one node of a chain: a command plus its hooks.
//
// Items are values. The builder methods return a modified copy, and a chain
// stores its own copy on Append, so the caller can keep reusing the
// original. Hooks are shared between copies, the command string is not.
type Item struct {
	name      string
	command   string
	before    LifecycleHook
	after     LifecycleHook
	onSuccess OutcomeHook
	onError   OutcomeHook
}

// NewItem returns an item that runs command.
func NewItem(command string) Item {
	return Item{command: command}
}

// Named sets a label used in logs and step reports.
func (i Item) Named(name string) Item {
	i.name = name
	return i
}

// WithCommand replaces the command.
func (i Item) WithCommand(command string) Item {
	i.command = command
	return i
}

// Before sets the hook invoked right before execution.
func (i Item) Before(hook LifecycleHook) Item {
	i.before = hook
	return i
}

// After sets the hook invoked after the outcome hook, whatever it decided.
func (i Item) After(hook LifecycleHook) Item {
	i.after = hook
	return i
}

// OnSuccess sets the hook invoked when the command writes nothing to stderr.
func (i Item) OnSuccess(hook OutcomeHook) Item {
	i.onSuccess = hook
	return i
}

// OnError sets the hook invoked when the command writes to stderr.
func (i Item) OnError(hook OutcomeHook) Item {
	i.onError = hook
	return i
}

// Name returns the label set with Named, or "" if none was set.
func (i Item) Name() string {
	return i.name
}

// Command returns the current command string.
func (i Item) Command() string {
	return i.command
}

// SetCommand rewrites the command in place. Meant for Before hooks.
func (i *Item) SetCommand(command string) {
	i.command = command
}

// ReplaceInCommand substitutes every occurrence of placeholder.
func (i *Item) ReplaceInCommand(placeholder, value string) {
	i.command = strings.ReplaceAll(i.command, placeholder, value)
}

// Executable reports whether both outcome hooks are set.
func (i Item) Executable() bool {
	return i.onSuccess != nil && i.onError != nil
}

func (i Item) missingHooks() []string {
	var missing []string
	if i.onSuccess == nil {
		missing = append(missing, "OnSuccess")
	}
	if i.onError == nil {
		missing = append(missing, "OnError")
	}
	return missing
}

// ContinueHook returns a hook that keeps output unchanged and continues.
func ContinueHook() OutcomeHook {
	return func(*Item, *string) Decision { return Continue }
}

// StopHook returns a hook that keeps output unchanged and stops the chain.
func StopHook() OutcomeHook {
	return func(*Item, *string) Decision { return Stop }
}
