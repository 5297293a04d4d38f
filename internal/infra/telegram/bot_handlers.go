// internal/infra/telegram/bot_handlers.go
package telegram

import (
	"context"
	"strconv"
	"time"

	"daily_insight_bot/internal/app"
	"daily_insight_bot/internal/domain/content"
	"daily_insight_bot/internal/domain/interest"
	"daily_insight_bot/internal/domain/messenger"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// topicButtonUnique tags the category buttons of the /topics menu.
const topicButtonUnique = "topic"

var categoryLabels = map[interest.Category]string{
	interest.CategoryMoney:         "💰 Money",
	interest.CategoryLove:          "❤️ Love",
	interest.CategoryCareer:        "💼 Career",
	interest.CategoryHealth:        "🌿 Health",
	interest.CategoryRelationships: "🤝 Relationships",
	interest.CategoryAcademics:     "📚 Academics",
	interest.CategoryGeneral:       "✨ General",
}

// RegisterBotHandlers wires the interactive surface of the bot: commands plus
// the category-menu callbacks. This is the subsystem that records interactions
// into the interest store; the delivery engine itself only reads it.
func RegisterBotHandlers(
	ctx context.Context,
	b *telebot.Bot,
	client messenger.Client,
	scoring app.ScoringService,
	deliveryService app.DeliveryService,
	contentSrc content.Source,
	baseLogger *logrus.Entry,
) {
	handlerLogger := baseLogger.WithField("handler_group", "bot")

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := handlerLogger.WithField("command", "/start").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /start command")
		return c.Send("Hi! I'm your daily insight bot. Pick topics you care about with /topics, and every morning I'll send you a short reading tuned to what you ask about most. Use /daily to get today's message right away.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		handlerLogger.WithField("command", "/help").WithField("sender_id", c.Sender().ID).Info("Processing /help command")
		return c.Send("Commands:\n\n"+
			"`/topics` - Ask about a topic (money, love, career, ...). The more you ask about a topic, the more your daily messages lean towards it.\n\n"+
			"`/daily` - Get today's personalized message now.\n\n"+
			"`/help` - Show this message.",
			&telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/topics", func(c telebot.Context) error {
		handlerLogger.WithField("command", "/topics").WithField("sender_id", c.Sender().ID).Info("Processing /topics command")
		return c.Send("What's on your mind today?", topicsMenu())
	})

	b.Handle("/daily", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := handlerLogger.WithField("command", "/daily").WithField("sender_id", senderID)
		logCtx.Info("Processing /daily command")

		rcpt := interest.Recipient{
			Platform:       interest.PlatformTelegram,
			PlatformUserID: strconv.FormatInt(senderID, 10),
		}
		outcome, err := deliveryService.RunOne(ctx, rcpt)
		if err != nil {
			logCtx.WithError(err).Error("On-demand delivery failed")
			return c.Send("Something went wrong on my side. Please try again later.")
		}
		if !outcome.Sent {
			logCtx.WithField("failure", outcome.Failure).Warn("On-demand delivery produced a failed outcome")
			return c.Send("I couldn't prepare your message just now. Please try again later.")
		}
		// The delivery engine already sent the message itself.
		return nil
	})

	b.Handle(&telebot.Btn{Unique: topicButtonUnique}, func(c telebot.Context) error {
		senderID := c.Sender().ID
		recipientID := strconv.FormatInt(senderID, 10)
		logCtx := handlerLogger.WithField("callback", topicButtonUnique).WithField("sender_id", senderID)

		category := interest.Category(c.Data())
		if !category.IsValid() {
			// Stale menu from an older bot version: drop it instead of
			// leaving dead buttons around.
			logCtx.WithField("data", c.Data()).Warn("Unknown category in callback; removing stale menu")
			if menu := c.Message(); menu != nil {
				_ = client.DeleteMessage(ctx, recipientID, strconv.Itoa(menu.ID))
			}
			return client.AckCallback(c.Callback().ID, "That menu is outdated, send /topics again.")
		}

		rcpt := interest.Recipient{Platform: interest.PlatformTelegram, PlatformUserID: recipientID}
		if err := scoring.RecordInteraction(ctx, rcpt, category, time.Now()); err != nil {
			logCtx.WithError(err).Error("Failed to record interaction")
			return client.AckCallback(c.Callback().ID, "Something went wrong, please try again.")
		}

		if err := client.AckCallback(c.Callback().ID, ""); err != nil {
			logCtx.WithError(err).Debug("Failed to acknowledge callback")
		}

		// Replace the menu with the choice so repeated taps don't double-count.
		if menu := c.Message(); menu != nil {
			label := categoryLabels[category]
			if err := client.EditMessage(ctx, recipientID, strconv.Itoa(menu.ID), "You asked about "+label+".", nil); err != nil {
				logCtx.WithError(err).Debug("Failed to edit topics menu")
			}
		}

		client.SendPresence(recipientID)

		// Answer the question the user actually asked, not the top-scored
		// category; the daily run takes care of the latter.
		text, err := contentSrc.MessageFor(ctx, category)
		if err != nil {
			logCtx.WithError(err).Error("Content source failed for selected topic")
			return c.Send("I couldn't prepare your reading just now. Please try again later.")
		}
		if _, err := client.SendMessage(ctx, recipientID, text, &messenger.SendOptions{Markdown: true}); err != nil {
			logCtx.WithError(err).Error("Failed to deliver reading after topic selection")
		}
		return nil
	})
}

func topicsMenu() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(interest.AllCategories))
	for _, category := range interest.AllCategories {
		btn := menu.Data(categoryLabels[category], topicButtonUnique, string(category))
		rows = append(rows, menu.Row(btn))
	}
	menu.Inline(rows...)
	return menu
}
