package utils

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wneessen/go-mail"

	"flashoff_back_end/internal/models"
)

// SendDiscountCreatedEmail notifie le marchand qu'une remise flash vient
// d'être créée. Envoi facultatif : sans SMTP configuré on ne fait rien.
func SendDiscountCreatedEmail(to, shop string, rec models.DiscountRecord) error {
	if os.Getenv("SMTP_HOST") == "" || to == "" {
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(os.Getenv("SMTP_FROM")); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("Remise flash de %d%% créée sur %s", rec.Percentage, shop))
	msg.SetBodyString(mail.TypeTextHTML, generateDiscountCreatedHTML(shop, rec))

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

func generateDiscountCreatedHTML(shop string, rec models.DiscountRecord) string {
	kind := "automatique (appliquée au panier sans code)"
	if !rec.IsAutomatic {
		kind = fmt.Sprintf("à code : <strong>%s</strong>", rec.Code)
	}

	expiry := "Cette remise n'expire pas."
	if rec.ExpiresAt != nil {
		expiry = fmt.Sprintf("Elle expire le %s.", rec.ExpiresAt.Format(time.RFC1123))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Remise flash créée</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">🔥 Remise flash créée</h2>
		<p>Bonjour,</p>
		<p>Une remise de <strong>%d%%</strong> vient d'être activée sur <strong>%s</strong>.</p>
		<p>Type : remise %s</p>
		<p>%s</p>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe FlashOff</strong>
		</p>
	</div>
</body>
</html>`, rec.Percentage, shop, kind, expiry)
}
