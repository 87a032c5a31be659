package discount

import "math/rand"

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 8

// GenerateDisplayCode génère un code d'affichage de 8 caractères [A-Z0-9].
// Source aléatoire non cryptographique et aucune déduplication contre
// l'historique : le risque de collision est accepté, ces codes servent à
// l'affichage et au suivi, pas à la sécurité.
func GenerateDisplayCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
