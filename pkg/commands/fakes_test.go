package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/txn2/dbsandbot/pkg/chat"
)

// fakeChat records channel-level traffic for assertions.
type fakeChat struct {
	mu       sync.Mutex
	sent     map[string][]chat.Message // channelID -> messages
	moves    map[string]string
	guilds   map[string]string
	files    map[string][]byte // url -> attachment payload
	nextChan int
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		sent:   make(map[string][]chat.Message),
		moves:  make(map[string]string),
		guilds: make(map[string]string),
		files:  make(map[string][]byte),
	}
}

func (f *fakeChat) Send(_ context.Context, channelID string, msg chat.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[channelID] = append(f.sent[channelID], msg)
	return "msg-id", nil
}

func (f *fakeChat) Reply(ctx context.Context, channelID, _ string, msg chat.Message) (string, error) {
	return f.Send(ctx, channelID, msg)
}

func (*fakeChat) Edit(context.Context, string, string, chat.Message) error { return nil }

func (f *fakeChat) CreateChannel(_ context.Context, guildID, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextChan++
	id := fmt.Sprintf("created-%d", f.nextChan)
	f.guilds[id] = guildID
	return id, nil
}

func (f *fakeChat) CreateThread(_ context.Context, channelID, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextChan++
	id := fmt.Sprintf("thread-%d", f.nextChan)
	f.guilds[id] = f.guilds[channelID]
	return id, nil
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

func (f *fakeChat) Download(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeChat) messages(channelID string) []chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.Message(nil), f.sent[channelID]...)
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

// fakeResponder records every interaction reply in order.
type fakeResponder struct {
	replies []recordedReply
}

type recordedReply struct {
	kind string // "reply", "ephemeral", "edit", "followup"
	msg  chat.Message
}

func (f *fakeResponder) Reply(_ context.Context, msg chat.Message) error {
	f.replies = append(f.replies, recordedReply{kind: "reply", msg: msg})
	return nil
}

func (f *fakeResponder) Ephemeral(_ context.Context, msg chat.Message) error {
	f.replies = append(f.replies, recordedReply{kind: "ephemeral", msg: msg})
	return nil
}

func (f *fakeResponder) Edit(_ context.Context, msg chat.Message) error {
	f.replies = append(f.replies, recordedReply{kind: "edit", msg: msg})
	return nil
}

func (f *fakeResponder) Followup(_ context.Context, msg chat.Message) error {
	f.replies = append(f.replies, recordedReply{kind: "followup", msg: msg})
	return nil
}

func (f *fakeResponder) last() recordedReply {
	if len(f.replies) == 0 {
		return recordedReply{}
	}
	return f.replies[len(f.replies)-1]
}

var _ chat.Responder = (*fakeResponder)(nil)
