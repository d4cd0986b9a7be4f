package service

import (
	"net/url"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

const (
	textWelcome = "Salut ! 👋 Prêt(e) pour Bolingo ? Ici, c'est pour des rencontres sérieuses " +
		"et dans le respect. On y va ?"
	buttonProceed = "✅ Oui, on y va !"

	textCharter = "Ok. D'abord, lis nos 3 règles. C'est important pour la sécurité. 🛡️\n\n" +
		"✅ <b>Respect</b> obligatoire\n" +
		"✅ <b>Vrai profil</b>, vraies photos\n" +
		"✅ <b>Pas de harcèlement</b>"
	buttonAccept = "✅ D'accord, j'accepte les règles"

	textWebAppLink = "Charte acceptée ! 👍\nClique sur le bouton ci-dessous pour commencer à créer ton profil."
	buttonCreate   = "✨ Créer mon profil"

	textResume   = "Content de te revoir ! Reprends la création de ton profil là où tu t'étais arrêté(e)."
	buttonResume = "✨ Reprendre mon profil"

	textRetry = "Oups, ta description n'a pas pu être générée. Renvoie tes choix pour réessayer 🙏"

	textCompleted = "Ton profil est prêt ✅ Tu recevras bientôt tes premières propositions de rencontres."

	textWebAppMissing = "Erreur : L'adresse du service n'est pas configurée."

	textDescription = "Voici ta description générée :\n\n"

	msgScheduled        = "Ta description est en cours de génération, tu vas la recevoir dans le chat."
	msgAlreadyScheduled = "Ta description est déjà en cours de génération."
	msgAlreadyDone      = "Ta description a déjà été générée."
	msgNotReady         = "Accepte d'abord la charte dans le chat pour créer ton profil."
)

const parseModeHTML = "HTML"

func welcomeReply(chatID int64) domain.Reply {
	return domain.Reply{
		ChatID:  chatID,
		Text:    textWelcome,
		Buttons: [][]domain.Button{{{Text: buttonProceed, CallbackData: domain.CallbackShowCharter}}},
	}
}

func charterReply(chatID int64, editID int) domain.Reply {
	return domain.Reply{
		ChatID:        chatID,
		Text:          textCharter,
		ParseMode:     parseModeHTML,
		Buttons:       [][]domain.Button{{{Text: buttonAccept, CallbackData: domain.CallbackAcceptCharter}}},
		EditMessageID: editID,
	}
}

func webAppLinkReply(chatID int64, editID int, webAppURL string) domain.Reply {
	return domain.Reply{
		ChatID:        chatID,
		Text:          textWebAppLink,
		Buttons:       [][]domain.Button{{{Text: buttonCreate, WebAppURL: webAppURL}}},
		EditMessageID: editID,
	}
}

func resumeReply(chatID int64, webAppURL string, state domain.OnboardingState) domain.Reply {
	return domain.Reply{
		ChatID:  chatID,
		Text:    textResume,
		Buttons: [][]domain.Button{{{Text: buttonResume, WebAppURL: resumeURL(webAppURL, state)}}},
	}
}

func retryReply(chatID int64, webAppURL string) domain.Reply {
	if webAppURL == "" {
		return domain.Reply{ChatID: chatID, Text: textRetry}
	}
	return domain.Reply{
		ChatID:  chatID,
		Text:    textRetry,
		Buttons: [][]domain.Button{{{Text: buttonResume, WebAppURL: resumeURL(webAppURL, domain.StateCharterAccepted)}}},
	}
}

func completedReply(chatID int64) domain.Reply {
	return domain.Reply{ChatID: chatID, Text: textCompleted}
}

func descriptionReply(chatID int64, text string) domain.Reply {
	return domain.Reply{ChatID: chatID, Text: textDescription + text}
}

func webAppMissingReply(chatID int64, editID int) domain.Reply {
	return domain.Reply{ChatID: chatID, Text: textWebAppMissing, EditMessageID: editID}
}

// resumeURL carries the current state so the mini-app opens on the right step.
func resumeURL(base string, state domain.OnboardingState) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("state", string(state))
	u.RawQuery = q.Encode()
	return u.String()
}
