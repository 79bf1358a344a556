// internal/circulation/messages.go
package circulation

import (
	"github.com/google/uuid"

	"librabranch/internal/membership"
)

// AddMessage delivers text to user.
func (l *Ledger) AddMessage(user *membership.User, text string) (*Message, error) {
	if user == nil {
		return nil, ErrNilUser
	}
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return l.notify(user, text), nil
}

// ReadMessage marks an unread message as read.
func (l *Ledger) ReadMessage(msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if !contains(l.messages[msg.recipient.Login()], msg) {
		return ErrUnknownMessage
	}
	if msg.read {
		return ErrAlreadyRead
	}
	msg.read = true
	return nil
}

// MarkRead is the lenient form of ReadMessage: it reports whether msg went from unread to read.
func (l *Ledger) MarkRead(user *membership.User, msg *Message) bool {
	if user == nil || msg == nil || msg.read || !contains(l.messages[user.Login()], msg) {
		return false
	}
	msg.read = true
	return true
}

// DeleteMessage removes msg from the user's inbox.
func (l *Ledger) DeleteMessage(user *membership.User, msg *Message) error {
	if user == nil {
		return ErrNilUser
	}
	if msg == nil {
		return ErrNilMessage
	}
	bucket := l.messages[user.Login()]
	if !contains(bucket, msg) {
		return ErrUnknownMessage
	}
	l.messages[user.Login()] = without(bucket, msg)
	return nil
}

// UnreadCount returns how many of the user's messages are unread.
func (l *Ledger) UnreadCount(user *membership.User) int {
	if user == nil {
		return 0
	}
	n := 0
	for _, m := range l.messages[user.Login()] {
		if !m.read {
			n++
		}
	}
	return n
}

// MessagesOf returns the user's inbox; false means nothing was ever delivered.
func (l *Ledger) MessagesOf(user *membership.User) ([]*Message, bool) {
	if user == nil {
		return nil, false
	}
	return bucketOf(l.messages, user.Login())
}

func (l *Ledger) notify(user *membership.User, text string) *Message {
	msg := &Message{
		id:        uuid.New(),
		recipient: user,
		text:      text,
		sent:      l.clock(),
	}
	l.messages[user.Login()] = append(l.messages[user.Login()], msg)
	return msg
}
