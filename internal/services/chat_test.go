package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listify_echo/internal/models"
	"listify_echo/internal/testutil"
)

func uintPtr(v uint) *uint { return &v }
func intPtr(v int) *int    { return &v }

func TestChatSend(t *testing.T) {
	db := testutil.NewDB(t)
	topic := &fakeBroadcaster{}
	svc := NewChatService(db, topic)
	ctx := context.Background()

	anna := testutil.CreateUser(t, db, "anna")
	outsider := testutil.CreateUser(t, db, "outsider")
	group := testutil.CreateGroup(t, db, "WG", anna)

	view, err := svc.Send(ctx, SendMessageInput{SenderID: anna.ID, GroupID: group.ID, Content: "hello", Type: "shout"})
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, models.MessageTypeText, view.Type)
	assert.Equal(t, "anna", view.SenderName)
	assert.Nil(t, view.Poll)

	require.Len(t, topic.events, 1)
	assert.Equal(t, group.ID, topic.events[0].groupID)
	assert.Equal(t, EventChatMessage, topic.events[0].eventType)

	dropped := []SendMessageInput{
		{SenderID: 999, GroupID: group.ID, Content: "ghost"},
		{SenderID: anna.ID, GroupID: 999, Content: "nowhere"},
		{SenderID: outsider.ID, GroupID: group.ID, Content: "intruder"},
	}
	for _, in := range dropped {
		view, err := svc.Send(ctx, in)
		assert.NoError(t, err)
		assert.Nil(t, view)
	}
	assert.Len(t, topic.events, 1)

	// a poll payload on a text message is discarded
	view, err = svc.Send(ctx, SendMessageInput{SenderID: anna.ID, GroupID: group.ID, Content: "x", Type: "TEXT", Poll: &models.Poll{Options: []models.PollOption{{Name: "a"}}}})
	require.NoError(t, err)
	assert.Nil(t, view.Poll)
}

func TestChatVote(t *testing.T) {
	db := testutil.NewDB(t)
	topic := &fakeBroadcaster{}
	svc := NewChatService(db, topic)
	ctx := context.Background()

	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	group := testutil.CreateGroup(t, db, "WG", anna, ben)

	poll, err := svc.Send(ctx, SendMessageInput{
		SenderID: anna.ID,
		GroupID:  group.ID,
		Content:  "Pizza or sushi?",
		Type:     "POLL",
		Poll:     &models.Poll{Question: "Dinner", Options: []models.PollOption{{Name: "pizza"}, {Name: "sushi"}}},
	})
	require.NoError(t, err)
	require.NotNil(t, poll.Poll)

	_, err = svc.Vote(ctx, VoteInput{MessageID: &poll.ID, OptionIndex: intPtr(0), UserID: &ben.ID})
	require.NoError(t, err)
	view, err := svc.Vote(ctx, VoteInput{MessageID: &poll.ID, OptionIndex: intPtr(1), UserID: &ben.ID})
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Empty(t, view.Poll.Options[0].Voters)
	assert.Equal(t, []uint{ben.ID}, view.Poll.Options[1].Voters)

	var stored models.ChatMessage
	require.NoError(t, db.First(&stored, poll.ID).Error)
	require.NotNil(t, stored.Poll)
	assert.Empty(t, stored.Poll.Options[0].Voters)
	assert.Equal(t, []uint{ben.ID}, stored.Poll.Options[1].Voters)

	text, err := svc.Send(ctx, SendMessageInput{SenderID: anna.ID, GroupID: group.ID, Content: "plain"})
	require.NoError(t, err)

	events := len(topic.events)
	dropped := []VoteInput{
		{OptionIndex: intPtr(0), UserID: &ben.ID},
		{MessageID: &poll.ID, UserID: &ben.ID},
		{MessageID: &poll.ID, OptionIndex: intPtr(0)},
		{MessageID: uintPtr(999), OptionIndex: intPtr(0), UserID: &ben.ID},
		{MessageID: &text.ID, OptionIndex: intPtr(0), UserID: &ben.ID},
		{MessageID: &poll.ID, OptionIndex: intPtr(5), UserID: &ben.ID},
	}
	for _, in := range dropped {
		view, err := svc.Vote(ctx, in)
		assert.NoError(t, err)
		assert.Nil(t, view)
	}
	assert.Len(t, topic.events, events)
}

func TestChatHistory(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewChatService(db, &fakeBroadcaster{})
	accounts := NewAccountService(db, newBalances(db))
	ctx := context.Background()

	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	group := testutil.CreateGroup(t, db, "WG", anna, ben)

	for _, in := range []SendMessageInput{
		{SenderID: anna.ID, GroupID: group.ID, Content: "first"},
		{SenderID: ben.ID, GroupID: group.ID, Content: "second"},
	} {
		_, err := svc.Send(ctx, in)
		require.NoError(t, err)
	}

	require.NoError(t, accounts.DeleteAccount(ctx, ben.ID))

	history, err := svc.History(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "anna", history[0].SenderName)
	assert.Equal(t, "Deleted User", history[1].SenderName)
	assert.Nil(t, history[1].SenderID)
}

func TestChatPollStartsWithoutVotes(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewChatService(db, &fakeBroadcaster{})
	ctx := context.Background()

	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	group := testutil.CreateGroup(t, db, "WG", anna, ben)

	view, err := svc.Send(ctx, SendMessageInput{
		SenderID: anna.ID,
		GroupID:  group.ID,
		Type:     "POLL",
		Poll: &models.Poll{Options: []models.PollOption{
			{Name: "Pizza", Voters: []uint{ben.ID, ben.ID}},
			{Name: "Sushi", Voters: []uint{ben.ID}},
		}},
	})
	require.NoError(t, err)
	require.NotNil(t, view.Poll)

	var stored models.ChatMessage
	require.NoError(t, db.First(&stored, view.ID).Error)
	require.Len(t, stored.Poll.Options, 2)
	for _, opt := range stored.Poll.Options {
		assert.Empty(t, opt.Voters, opt.Name)
	}
	assert.Equal(t, "Pizza", stored.Poll.Options[0].Name)
}

func TestChatVoteRequiresMembership(t *testing.T) {
	db := testutil.NewDB(t)
	topic := &fakeBroadcaster{}
	svc := NewChatService(db, topic)
	ctx := context.Background()

	anna := testutil.CreateUser(t, db, "anna")
	carl := testutil.CreateUser(t, db, "carl")
	group := testutil.CreateGroup(t, db, "WG", anna)
	testutil.CreateGroup(t, db, "Other", carl)

	poll, err := svc.Send(ctx, SendMessageInput{
		SenderID: anna.ID,
		GroupID:  group.ID,
		Type:     "POLL",
		Poll:     &models.Poll{Options: []models.PollOption{{Name: "yes"}, {Name: "no"}}},
	})
	require.NoError(t, err)

	for _, voter := range []uint{carl.ID, 999} {
		view, err := svc.Vote(ctx, VoteInput{MessageID: &poll.ID, OptionIndex: intPtr(0), UserID: uintPtr(voter)})
		assert.NoError(t, err)
		assert.Nil(t, view)
	}
	assert.Len(t, topic.events, 1)

	var stored models.ChatMessage
	require.NoError(t, db.First(&stored, poll.ID).Error)
	assert.Empty(t, stored.Poll.Options[0].Voters)
}
