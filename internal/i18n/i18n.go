// Package i18n holds the user-visible strings of the waitlist in English and
// French and looks them up by language.
package i18n

import (
	"fmt"
	"strings"
)

// Lang is a supported display language.
type Lang string

const (
	English Lang = "en"
	French  Lang = "fr"
)

// DefaultLang is used when nothing else resolves.
const DefaultLang = English

// Supported lists the languages in matcher preference order.
var Supported = []Lang{English, French}

// ParseLang accepts "en" or "fr" in any case, with or without a region.
func ParseLang(s string) (Lang, bool) {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "-")
	switch Lang(base) {
	case English, French:
		return Lang(base), true
	default:
		return "", false
	}
}

// Key identifies a message.
type Key string

const (
	InvalidRequestFormat     Key = "request.invalid_format"
	InvalidEmail             Key = "waitlist.invalid_email"
	Subscribed               Key = "waitlist.subscribed"
	SubscribedDevelopment    Key = "waitlist.subscribed_development"
	AlreadySubscribed        Key = "waitlist.already_subscribed"
	StoreMisconfigured       Key = "waitlist.store_misconfigured"
	StoreMisconfiguredDetail Key = "waitlist.store_misconfigured_details"
	GenericFailure           Key = "error.generic"
	ServerError              Key = "error.server"
	UnknownError             Key = "error.unknown"
	NetworkFailure           Key = "error.network"
	RateLimited              Key = "error.rate_limited"
	InvalidPreferences       Key = "preferences.invalid"
)

var messages = map[Lang]map[Key]string{
	English: {
		InvalidRequestFormat:     "invalid request format",
		InvalidEmail:             "please enter a valid email",
		Subscribed:               "email registered successfully",
		SubscribedDevelopment:    "email registered successfully (development mode)",
		AlreadySubscribed:        "this email is already registered",
		StoreMisconfigured:       "missing security configuration: run %s against the subscriber database",
		StoreMisconfiguredDetail: "run %s in the subscriber database SQL console",
		GenericFailure:           "an error occurred, please try again",
		ServerError:              "server error",
		UnknownError:             "unknown error",
		NetworkFailure:           "connection error, check your internet connection",
		RateLimited:              "too many requests, please try again later",
		InvalidPreferences:       "unsupported language or theme",
	},
	French: {
		InvalidRequestFormat:     "Format de requête invalide",
		InvalidEmail:             "Veuillez entrer un email valide",
		Subscribed:               "Email enregistré avec succès",
		SubscribedDevelopment:    "Email enregistré avec succès (mode développement)",
		AlreadySubscribed:        "Cet email est déjà enregistré",
		StoreMisconfigured:       "Configuration de sécurité manquante. Veuillez exécuter %s sur la base des abonnés.",
		StoreMisconfiguredDetail: "Exécutez %s dans l'éditeur SQL de la base des abonnés",
		GenericFailure:           "Une erreur est survenue. Veuillez réessayer.",
		ServerError:              "Erreur serveur",
		UnknownError:             "Erreur inconnue",
		NetworkFailure:           "Erreur de connexion. Vérifiez votre connexion internet.",
		RateLimited:              "Trop de requêtes. Veuillez réessayer plus tard.",
		InvalidPreferences:       "Langue ou thème non pris en charge",
	},
}

// T returns the message for key in lang, falling back to English and then to
// the key itself. Args are applied with fmt.Sprintf when present.
func T(lang Lang, key Key, args ...any) string {
	msg, ok := messages[lang][key]
	if !ok {
		msg, ok = messages[DefaultLang][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
