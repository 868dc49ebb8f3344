package mystery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/whodunit/internal/agents"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/models"
)

// ChatResult is a finished one-on-one exchange.
type ChatResult struct {
	Game
	CharacterID string `json:"characterId"`
	Reply       string `json:"reply"`
}

// GroupChatResult is a finished group turn.
type GroupChatResult struct {
	Game
	Replies []game.Reply `json:"replies"`
}

// ChatTurn is a validated private message waiting for the character to answer.
type ChatTurn struct {
	service   *Service
	game      Game
	character *models.Character
	message   string
}

// GroupTurn is a validated group chat message waiting for the characters to answer.
type GroupTurn struct {
	service *Service
	game    Game
	message string
}

// StartChat validates a private message to characterID.
func (s *Service) StartChat(ctx context.Context, id string, characterID string, message string) (*ChatTurn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.Wrap(game.ErrInvalidInput, "message is required")
	}
	g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = game.RequireCapability(g.Session, game.CapabilityChat); err != nil {
		return nil, err
	}
	character, ok := g.Scenario.Character(characterID)
	if !ok {
		return nil, errors.Wrap(game.ErrNotFound, "character not found", slog.String("character_id", characterID))
	}
	if _, ok = g.Session.CharacterMemories[characterID]; !ok {
		return nil, errors.Wrap(game.ErrNotFound, "character memory not found",
			slog.String("character_id", characterID))
	}
	return &ChatTurn{service: s, game: g, character: character, message: message}, nil
}

// CharacterID is the character answering the turn.
func (t *ChatTurn) CharacterID() string {
	return t.character.ID
}

// Stream generates the reply and passes every fragment to emit. A nil emit only collects the reply.
//
// The exchange is saved after the last fragment has been emitted. Nothing is saved when ctx is done or emit
// fails before that.
func (t *ChatTurn) Stream(ctx context.Context, emit func(text string) error) (ChatResult, error) {
	s := t.service
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := t.game.Session
	fragments := s.privateChat.Respond(ctx, t.character, session.CharacterMemories[t.character.ID],
		session.ChatHistories[t.character.ID], session.CurrentPhase, t.message)
	var (
		reply   strings.Builder
		emitErr error
	)
	for text := range fragments {
		if emitErr != nil {
			continue
		}
		reply.WriteString(text)
		if emit != nil {
			if err := emit(text); err != nil {
				emitErr = errors.Wrap(err, "emit reply fragment")
				cancel()
			}
		}
	}
	if emitErr != nil {
		return ChatResult{}, emitErr
	}
	if err := ctx.Err(); err != nil {
		return ChatResult{}, errors.Wrap(err, "chat interrupted")
	}

	text := strings.TrimSpace(reply.String())
	g, err := s.update(ctx, t.game, func(session models.GameSession) (models.GameSession, error) {
		return game.RecordPrivateChat(session, t.character.ID, t.message, text), nil
	})
	if err != nil {
		return ChatResult{}, errors.Wrap(err, "record private chat")
	}
	if g, err = s.compact(ctx, g, []string{t.character.ID}); err != nil {
		return ChatResult{}, err
	}
	return ChatResult{Game: g, CharacterID: t.character.ID, Reply: text}, nil
}

// Chat sends a private message and waits for the whole reply.
func (s *Service) Chat(ctx context.Context, id string, characterID string, message string) (ChatResult, error) {
	turn, err := s.StartChat(ctx, id, characterID, message)
	if err != nil {
		return ChatResult{}, err
	}
	return turn.Stream(ctx, nil)
}

// StartGroupChat validates a group chat message. An empty message lets the characters continue the discussion by
// themselves. Nothing is saved until the turn is streamed.
func (s *Service) StartGroupChat(ctx context.Context, id string, message string) (*GroupTurn, error) {
	message = strings.TrimSpace(message)
	g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = requireDiscussion(g.Session); err != nil {
		return nil, err
	}
	return &GroupTurn{service: s, game: g, message: message}, nil
}

func requireDiscussion(session models.GameSession) error {
	if game.IsDiscussion(session.CurrentPhase) {
		return nil
	}
	return errors.Wrap(game.ErrCapabilityDisabled,
		fmt.Sprintf("group chat is disabled during phase %s", session.CurrentPhase),
		slog.String("phase", string(session.CurrentPhase)))
}

// Stream saves the player message, generates the replies of the responding characters one after another and
// passes every fragment to emit. A nil emit only collects the replies.
//
// The replies are saved after the last fragment has been emitted. Only the player message is kept when ctx is done
// or emit fails before that.
func (t *GroupTurn) Stream(ctx context.Context, emit func(agents.Fragment) error) (GroupChatResult, error) {
	s := t.service
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if t.message != "" {
		g, err := s.update(ctx, t.game, func(session models.GameSession) (models.GameSession, error) {
			if discussionErr := requireDiscussion(session); discussionErr != nil {
				return session, discussionErr
			}
			return game.RecordPlayerGroupMessage(session, t.message), nil
		})
		if err != nil {
			return GroupChatResult{}, errors.Wrap(err, "record group message")
		}
		t.game = g
	}

	var (
		replies []game.Reply
		emitErr error
	)
	for f := range s.groupChat.Respond(ctx, t.game.Session, t.game.Scenario, t.message) {
		if emitErr != nil {
			continue
		}
		if len(replies) == 0 || replies[len(replies)-1].CharacterID != f.CharacterID {
			replies = append(replies, game.Reply{CharacterID: f.CharacterID})
		}
		replies[len(replies)-1].Text += f.Text
		if emit != nil {
			if err := emit(f); err != nil {
				emitErr = errors.Wrap(err, "emit group fragment")
				cancel()
			}
		}
	}
	if emitErr != nil {
		return GroupChatResult{}, emitErr
	}
	if err := ctx.Err(); err != nil {
		return GroupChatResult{}, errors.Wrap(err, "group chat interrupted")
	}
	for i := range replies {
		replies[i].Text = strings.TrimSpace(replies[i].Text)
	}
	if len(replies) == 0 {
		return GroupChatResult{Game: t.game, Replies: []game.Reply{}}, nil
	}

	g, err := s.update(ctx, t.game, func(session models.GameSession) (models.GameSession, error) {
		return game.RecordGroupReplies(session, t.message, replies), nil
	})
	if err != nil {
		return GroupChatResult{}, errors.Wrap(err, "record group replies")
	}
	responders := make([]string, 0, len(replies))
	for _, r := range replies {
		responders = append(responders, r.CharacterID)
	}
	if g, err = s.compact(ctx, g, responders); err != nil {
		return GroupChatResult{}, err
	}
	return GroupChatResult{Game: g, Replies: replies}, nil
}

// GroupChat sends a group chat message and waits for every reply.
func (s *Service) GroupChat(ctx context.Context, id string, message string) (GroupChatResult, error) {
	turn, err := s.StartGroupChat(ctx, id, message)
	if err != nil {
		return GroupChatResult{}, err
	}
	return turn.Stream(ctx, nil)
}

// compact summarizes the overfull memories of characterIDs. The summaries are generated outside the repository
// update so that slow generation does not block other writers.
func (s *Service) compact(ctx context.Context, g Game, characterIDs []string) (Game, error) {
	overfull := game.OverfullMemories(g.Session, characterIDs)
	if len(overfull) == 0 {
		return g, nil
	}
	summaries := make(map[string]string, len(overfull))
	for _, id := range overfull {
		summaries[id] = memory.Summarize(ctx, g.Session.CharacterMemories[id], s.summarizer)
	}
	g, err := s.update(ctx, g, func(session models.GameSession) (models.GameSession, error) {
		for id, summary := range summaries {
			if m, ok := session.CharacterMemories[id]; ok {
				session.CharacterMemories[id] = memory.ApplySummary(m, summary)
			}
		}
		return session, nil
	})
	if err != nil {
		return Game{}, errors.Wrap(err, "compact memories")
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "memories compacted", slog.Any("character_ids", overfull))
	return g, nil
}
