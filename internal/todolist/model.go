// Package todolist models shared household todo lists. A list with a due
// date surfaces on the calendar for that day.
package todolist

import (
	"errors"
	"fmt"
	"time"

	"github.com/kindredhq/hearth/internal/wire"
)

// ErrMissingTitle indicates a todo list payload without a title.
var ErrMissingTitle = errors.New("todolist: title is required")

// Item is one line of a list.
type Item struct {
	Text string
	Done bool
}

// List is the in-memory form of one todo list.
type List struct {
	ID        string
	AccountID string
	Title     string
	DueDate   *time.Time
	Items     []Item
	MemberID  string
}

// FromPayload decodes a wire todo list payload.
func FromPayload(payload wire.TodoListPayload) (List, error) {
	if payload.Title == "" {
		return List{}, fmt.Errorf("%w: list %s", ErrMissingTitle, payload.ID)
	}
	list := List{
		ID:        payload.ID,
		AccountID: payload.AccountID,
		Title:     payload.Title,
		MemberID:  payload.MemberID,
	}
	if payload.DueDate != "" {
		dueDate, err := wire.ParseDate(payload.DueDate)
		if err != nil {
			return List{}, err
		}
		list.DueDate = &dueDate
	}
	for _, item := range payload.Items {
		list.Items = append(list.Items, Item{Text: item.Text, Done: item.Done})
	}
	return list, nil
}

// ToPayload encodes the list in its wire form.
func (l List) ToPayload() wire.TodoListPayload {
	payload := wire.TodoListPayload{
		ID:        l.ID,
		AccountID: l.AccountID,
		Title:     l.Title,
		MemberID:  l.MemberID,
	}
	if l.DueDate != nil {
		payload.DueDate = wire.FormatDate(*l.DueDate)
	}
	for _, item := range l.Items {
		payload.Items = append(payload.Items, wire.TodoItemPayload{Text: item.Text, Done: item.Done})
	}
	return payload
}

// RemainingCount reports how many items are still open.
func (l List) RemainingCount() int {
	remaining := 0
	for _, item := range l.Items {
		if !item.Done {
			remaining++
		}
	}
	return remaining
}
