package assistant

import (
	"fmt"
	"strings"
)

const chatInstructions = `Tu es l'assistant immobilier de Betna Immo, une plateforme de location et de vente de biens en Côte d'Ivoire.
Aide l'utilisateur à préciser sa recherche (ville ou quartier, type de séjour long ou court, budget maximum en FCFA, nombre de chambres).
Réponds uniquement avec un objet JSON de la forme :
{"replyText": "...", "extractedCriteria": {"location": "...", "stayType": "long|short", "maxBudget": 0, "minBedrooms": 0}, "nextQuestion": "..."}
Omets les critères inconnus.`

const analyzeInstructions = `Analyse la description d'annonce immobilière suivante.
Réponds uniquement avec un objet JSON de la forme :
{"summary": "...", "highlights": ["..."], "keywords": ["..."]}`

func chatPrompt(history []Message, message string) string {
	var b strings.Builder
	b.WriteString(chatInstructions)
	b.WriteString("\n\n")
	if len(history) > 0 {
		b.WriteString("Historique :\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "user: %s\n", message)
	return b.String()
}

func analyzePrompt(description string) string {
	return analyzeInstructions + "\n\nDescription :\n" + description + "\n"
}
