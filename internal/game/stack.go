package game

import "fmt"

// The shared stack is an operator-managed visual queue of pending
// effects, not a rules-accurate LIFO stack: entries are appended,
// duplicated in place, or removed by index, with no ownership checks.

// PushStack appends a pending effect. A full stack rejects the push.
func (e *Engine) PushStack(cardName, imageURL string, owner int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlayerLocked(owner); err != nil {
		return err
	}
	if len(e.state.Stack) >= MaxStackSize {
		return ErrStackFull
	}

	e.snapshotLocked()
	e.state.Stack = append(e.state.Stack, StackEntry{
		CardName: cardName,
		ImageURL: imageURL,
		Owner:    owner,
	})
	e.logActionLocked("%s put %s on the stack", e.state.Players[owner].DisplayName(), cardName)
	e.notifyLocked()
	return nil
}

// DuplicateStackEntry inserts a copy of the entry immediately after it.
func (e *Engine) DuplicateStackEntry(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.state.Stack) {
		return fmt.Errorf("stack index %d out of range", index)
	}
	if len(e.state.Stack) >= MaxStackSize {
		return ErrStackFull
	}

	e.snapshotLocked()
	entry := e.state.Stack[index]
	e.state.Stack = append(e.state.Stack, StackEntry{})
	copy(e.state.Stack[index+2:], e.state.Stack[index+1:])
	e.state.Stack[index+1] = entry
	e.logActionLocked("copied %s on the stack", entry.CardName)
	e.notifyLocked()
	return nil
}

// RemoveStackEntry deletes the entry at the given index. Any operator
// may remove any entry.
func (e *Engine) RemoveStackEntry(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.state.Stack) {
		return fmt.Errorf("stack index %d out of range", index)
	}

	e.snapshotLocked()
	entry := e.state.Stack[index]
	e.state.Stack = append(e.state.Stack[:index], e.state.Stack[index+1:]...)
	e.logActionLocked("%s left the stack", entry.CardName)
	e.notifyLocked()
	return nil
}
