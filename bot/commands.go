package bot

import (
	"fmt"

	"lotto/bot/features/lottery"

	"github.com/bwmarrin/discordgo"
)

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        lottery.CommandPlay,
			Description: "Stake your whole balance on the lottery",
		},
		{
			Name:        lottery.CommandHelp,
			Description: "Show the lottery rules and odds",
		},
		{
			Name:        lottery.CommandHistory,
			Description: "Show your most recent lottery plays",
		},
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}
