package session

import (
	"context"
	"errors"
	"sync"

	"github.com/txn2/dbsandbot/pkg/chat"
)

// fakeChat records every capability call for assertions.
type fakeChat struct {
	mu      sync.Mutex
	sent    []fakeSent
	moves   map[string]string // channelID -> categoryID
	guilds  map[string]string // channelID -> guildID
	sendErr error
}

type fakeSent struct {
	channelID string
	msg       chat.Message
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		moves:  make(map[string]string),
		guilds: make(map[string]string),
	}
}

func (f *fakeChat) Send(_ context.Context, channelID string, msg chat.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, fakeSent{channelID: channelID, msg: msg})
	return "msg-id", nil
}

func (f *fakeChat) Reply(ctx context.Context, channelID, _ string, msg chat.Message) (string, error) {
	return f.Send(ctx, channelID, msg)
}

func (*fakeChat) Edit(context.Context, string, string, chat.Message) error { return nil }

func (*fakeChat) CreateChannel(context.Context, string, string, string) (string, error) {
	return "", errors.New("not supported")
}

func (*fakeChat) CreateThread(context.Context, string, string, string) (string, error) {
	return "", errors.New("not supported")
}

func (f *fakeChat) MoveChannel(_ context.Context, channelID, categoryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves[channelID] = categoryID
	return nil
}

func (f *fakeChat) GuildOf(_ context.Context, channelID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guilds[channelID]
	if !ok {
		return "", errors.New("unknown channel")
	}
	return g, nil
}

func (*fakeChat) Download(context.Context, string) ([]byte, error) {
	return nil, errors.New("not supported")
}

func (f *fakeChat) messages(channelID string) []chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.Message
	for _, s := range f.sent {
		if s.channelID == channelID {
			out = append(out, s.msg)
		}
	}
	return out
}

func (f *fakeChat) findByTitle(channelID, title string) (chat.Message, bool) {
	for _, m := range f.messages(channelID) {
		if m.Title == title {
			return m, true
		}
	}
	return chat.Message{}, false
}

var _ chat.Client = (*fakeChat)(nil)
