package shopify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Convention de titre de l'application : "Flash Sale - 20% Off (1693526400000)".
// Le timestamp (ms) garde les titres uniques d'une génération à l'autre et
// permet de retrouver la plus récente. Les extracteurs ci-dessous sont des
// solutions de repli "best effort" : quand la plateforme expose le champ
// directement, c'est lui qui fait foi, jamais le texte du titre.

// DefaultScrapedPercentage est utilisé quand aucun pourcentage n'est lisible
// dans le titre. 20 est la valeur documentée, retenue une fois pour toutes.
const DefaultScrapedPercentage = 20

var (
	percentPattern   = regexp.MustCompile(`(\d+)%`)
	timestampPattern = regexp.MustCompile(`\((\d+)\)`)
)

// BuildFlashSaleTitle construit le titre d'une nouvelle remise
func BuildFlashSaleTitle(percentage int, now time.Time) string {
	return fmt.Sprintf("Flash Sale - %d%% Off (%d)", percentage, now.UnixMilli())
}

// ExtractPercentageFromTitle récupère le premier nombre suivi de % dans un
// titre, ou DefaultScrapedPercentage s'il n'y en a pas
func ExtractPercentageFromTitle(title string) int {
	m := percentPattern.FindStringSubmatch(title)
	if m == nil {
		return DefaultScrapedPercentage
	}
	p, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultScrapedPercentage
	}
	return p
}

// ExtractTimestampFromTitle récupère le timestamp (ms) entre parenthèses,
// ou 0 si le titre ne suit pas la convention
func ExtractTimestampFromTitle(title string) int64 {
	m := timestampPattern.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	ts, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// ExtractCodeFromTitle cherche dans le titre un mot qui ressemble à un code
// (5+ caractères, tout en majuscules alphanumériques). Heuristique imparfaite,
// uniquement utilisée quand la plateforme ne renvoie aucun code.
func ExtractCodeFromTitle(title string) string {
	for _, word := range strings.Fields(title) {
		if len(word) < 5 {
			continue
		}
		if word != strings.ToUpper(word) {
			continue
		}
		allAlnum := true
		for _, r := range word {
			if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
				allAlnum = false
				break
			}
		}
		if allAlnum {
			return word
		}
	}
	return ""
}
