// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package reminder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lernkit/idp/issuer"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Recipient is a site administrator as known to the admin registry.
type Recipient struct {
	ID       int64
	FullName string
	Email    string

	// Lang is a BCP 47 tag, empty when the user never chose one.
	Lang string

	// Timezone is an IANA zone name, empty when unknown.
	Timezone string
}

// Message is one reminder for one recipient.
type Message struct {
	To      Recipient
	Subject string
	Body    string
}

const (
	keySubject  = "client secret expiry subject"
	keyBody     = "client secret expiry body"
	keyEditLink = "edit issuer"
)

var (
	supportedLanguages = []language.Tag{
		language.English, // first is the fallback
		language.French,
		language.German,
		language.Spanish,
	}

	languageMatcher = language.NewMatcher(supportedLanguages)

	// expiry layouts, in the style of each language's short date and time
	dateTimeLayouts = map[language.Tag]string{
		language.English: "2 January 2006, 3:04 PM MST",
		language.French:  "02/01/2006 15:04 MST",
		language.German:  "02.01.2006, 15:04 MST",
		language.Spanish: "02/01/2006 15:04 MST",
	}

	messages = mustCatalog(map[language.Tag][3]string{
		language.English: {
			"Sign in with Apple client secret of %[1]s needs renewal",
			"Hi %[1]s,\n\nThe client secret of the OAuth 2 service %[2]s (id %[3]s) expires on %[4]s. " +
				"Users can no longer sign in with Apple once it has expired.\n\n" +
				"Generate a new client secret and save it in the service settings:\n%[5]s\n",
			"Edit %[1]s",
		},
		language.French: {
			"Le secret client Sign in with Apple de %[1]s doit être renouvelé",
			"Bonjour %[1]s,\n\nLe secret client du service OAuth 2 %[2]s (id %[3]s) expire le %[4]s. " +
				"Les utilisateurs ne pourront plus se connecter avec Apple une fois qu'il aura expiré.\n\n" +
				"Générez un nouveau secret client et enregistrez-le dans les réglages du service :\n%[5]s\n",
			"Modifier %[1]s",
		},
		language.German: {
			"Das Sign in with Apple Client-Secret von %[1]s muss erneuert werden",
			"Hallo %[1]s,\n\ndas Client-Secret des OAuth 2-Dienstes %[2]s (ID %[3]s) läuft am %[4]s ab. " +
				"Danach können sich Nutzer nicht mehr mit Apple anmelden.\n\n" +
				"Erzeugen Sie ein neues Client-Secret und speichern Sie es in den Diensteinstellungen:\n%[5]s\n",
			"%[1]s bearbeiten",
		},
		language.Spanish: {
			"El secreto de cliente de Sign in with Apple de %[1]s debe renovarse",
			"Hola %[1]s,\n\nEl secreto de cliente del servicio OAuth 2 %[2]s (id %[3]s) caduca el %[4]s. " +
				"Los usuarios no podrán iniciar sesión con Apple cuando haya caducado.\n\n" +
				"Genere un nuevo secreto de cliente y guárdelo en la configuración del servicio:\n%[5]s\n",
			"Editar %[1]s",
		},
	})
)

func mustCatalog(entries map[language.Tag][3]string) catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, e := range entries {
		for i, key := range []string{keySubject, keyBody, keyEditLink} {
			if err := b.SetString(tag, key, e[i]); err != nil {
				panic(fmt.Sprintf("reminder: invalid catalog entry %s/%s: %s", tag, key, err))
			}
		}
	}
	return b
}

// matchLanguage returns the supported language closest to lang, or fallback
// when lang is empty or unparsable.
func matchLanguage(lang string, fallback language.Tag) language.Tag {
	if lang == "" {
		return fallback
	}
	t, err := language.Parse(lang)
	if err != nil {
		return fallback
	}
	_, idx, conf := languageMatcher.Match(t)
	if conf == language.No {
		return fallback
	}
	return supportedLanguages[idx]
}

// EditLink returns the url of the issuer's edit screen under adminBaseURL.
func EditLink(adminBaseURL string, issuerID int64) string {
	return strings.TrimSuffix(adminBaseURL, "/") + "/oauth2/issuers.php?id=" + strconv.FormatInt(issuerID, 10) + "&action=edit"
}

type composer struct {
	siteName     string
	adminBaseURL string
	defaultLang  language.Tag
	defaultLoc   *time.Location
}

// compose builds the message for to. The expiry is shown in the recipient's
// timezone and language when known.
func (c *composer) compose(to Recipient, iss *issuer.Issuer, exp time.Time) Message {
	tag := matchLanguage(to.Lang, c.defaultLang)
	loc := c.defaultLoc
	if to.Timezone != "" {
		if l, err := time.LoadLocation(to.Timezone); err == nil {
			loc = l
		}
	}
	if loc == nil {
		loc = time.UTC
	}

	p := message.NewPrinter(tag, message.Catalog(messages))
	link := EditLink(c.adminBaseURL, iss.ID)
	editLink := p.Sprintf(keyEditLink, iss.Name) + ": " + link
	expiry := exp.In(loc).Format(dateTimeLayouts[tag])
	id := strconv.FormatInt(iss.ID, 10)

	return Message{
		To:      to,
		Subject: c.siteName + ": " + p.Sprintf(keySubject, iss.Name),
		Body:    p.Sprintf(keyBody, to.FullName, iss.Name, id, expiry, editLink),
	}
}
