package lottery

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"lotto/bot/common"
	"lotto/models"
)

// HandlePlay runs one lottery play for the invoking user
func (f *Feature) HandlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := common.InvokingUserID(i)
	if userID == "" {
		common.RespondWithError(s, i, "Unable to identify you. Please try again.")
		return
	}

	// The play may wait on the store lock, so acknowledge first
	if err := common.DeferResponse(s, i, false); err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to defer lottery response")
		return
	}

	result := f.lotteryService.Play(context.Background(), userID)
	if err := common.EditContent(s, i, FormatPlayResult(result, f.currencyName)); err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to send lottery result")
	}
}

// HandleHelp responds with the rules of the active policy
func (f *Feature) HandleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	content := f.lotteryService.Rules() + "\nUse `/" + CommandPlay + "` to play. Good luck! 🍀"
	if err := common.RespondWithContent(s, i, content, true); err != nil {
		log.Errorf("Error responding to lottery help command: %v", err)
	}
}

// HandleHistory lists the invoking user's recent plays
func (f *Feature) HandleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := common.InvokingUserID(i)
	if userID == "" {
		common.RespondWithError(s, i, "Unable to identify you. Please try again.")
		return
	}

	records, err := f.lotteryService.History(context.Background(), userID, historyLimit)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			common.RespondWithError(s, i, "You have no account yet.")
			return
		}
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to load lottery history")
		common.RespondWithError(s, i, "Unable to load your history. Please try again.")
		return
	}

	if err := common.RespondWithContent(s, i, FormatHistory(records, f.currencyName), true); err != nil {
		log.Errorf("Error responding to lottery history command: %v", err)
	}
}
