package bot

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"lotto/bot/features/lottery"
	"lotto/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token        string
	GuildID      string
	CurrencyName string
}

type Bot struct {
	config  Config
	session *discordgo.Session
	lottery *lottery.Feature
}

func New(config Config, lotteryService service.LotteryService) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	bot := &Bot{
		config:  config,
		session: dg,
		lottery: lottery.New(lotteryService, config.CurrencyName),
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id": config.GuildID,
		"user":     dg.State.User.Username,
	}).Info("Discord bot connected")

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case lottery.CommandPlay:
		b.lottery.HandlePlay(s, i)
	case lottery.CommandHelp:
		b.lottery.HandleHelp(s, i)
	case lottery.CommandHistory:
		b.lottery.HandleHistory(s, i)
	}
}
