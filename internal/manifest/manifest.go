package manifest

import (
	"encoding/json"
	"strings"

	"github.com/mybaseweek/weekstats/internal/config"
)

const (
	AppName               = "My Base Week"
	ButtonTitle           = "Check your stats this week"
	SplashBackgroundColor = "#020617"
)

type AccountAssociation struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

type MiniApp struct {
	Version               string   `json:"version"`
	Name                  string   `json:"name"`
	Subtitle              string   `json:"subtitle"`
	Description           string   `json:"description"`
	IconURL               string   `json:"iconUrl"`
	SplashImageURL        string   `json:"splashImageUrl"`
	SplashBackgroundColor string   `json:"splashBackgroundColor"`
	ScreenshotURLs        []string `json:"screenshotUrls"`
	HeroImageURL          string   `json:"heroImageUrl"`
	HomeURL               string   `json:"homeUrl"`
	WebhookURL            string   `json:"webhookUrl"`
	ButtonTitle           string   `json:"buttonTitle"`
	PrimaryCategory       string   `json:"primaryCategory"`
	Tags                  []string `json:"tags"`
	Tagline               string   `json:"tagline"`
	OGTitle               string   `json:"ogTitle"`
	OGDescription         string   `json:"ogDescription"`
	OGImageURL            string   `json:"ogImageUrl"`
}

// Manifest is the document served at /.well-known/farcaster.json.
type Manifest struct {
	AccountAssociation *AccountAssociation `json:"accountAssociation,omitempty"`
	MiniApp            MiniApp             `json:"miniapp"`
}

// Build derives every URL from appURL. The account association is omitted
// until all three signing parts are configured.
func Build(appURL string, signing config.ManifestSigning) Manifest {
	root := strings.TrimRight(appURL, "/")

	m := Manifest{
		MiniApp: MiniApp{
			Version:               "1",
			Name:                  AppName,
			Subtitle:              "Your last 7 days on Farcaster",
			Description:           "See your weekly Farcaster stats inside Base App: casts, likes, recasts, replies, and your top cast.",
			IconURL:               root + "/icon.png",
			SplashImageURL:        root + "/hero.png",
			SplashBackgroundColor: SplashBackgroundColor,
			ScreenshotURLs:        []string{root + "/screenshot-portrait.png"},
			HeroImageURL:          root + "/hero.png",
			HomeURL:               root,
			WebhookURL:            root + "/api/webhook",
			ButtonTitle:           ButtonTitle,
			PrimaryCategory:       "social",
			Tags:                  []string{"farcaster", "analytics", "base-app", "stats"},
			Tagline:               "Your Farcaster week at a glance",
			OGTitle:               AppName,
			OGDescription:         "See your last 7 days of Farcaster activity in one simple Base mini app.",
			OGImageURL:            root + "/hero.png",
		},
	}

	if signing.Header != "" && signing.Payload != "" && signing.Signature != "" {
		m.AccountAssociation = &AccountAssociation{
			Header:    signing.Header,
			Payload:   signing.Payload,
			Signature: signing.Signature,
		}
	}
	return m
}

// Embed is the fc:miniapp / fc:frame meta payload advertising a launch card.
type Embed struct {
	Version  string      `json:"version"`
	ImageURL string      `json:"imageUrl"`
	Button   EmbedButton `json:"button"`
}

type EmbedButton struct {
	Title  string      `json:"title"`
	Action EmbedAction `json:"action"`
}

type EmbedAction struct {
	Type                  string `json:"type"`
	Name                  string `json:"name"`
	URL                   string `json:"url"`
	SplashImageURL        string `json:"splashImageUrl"`
	SplashBackgroundColor string `json:"splashBackgroundColor"`
}

// Action types understood by Farcaster clients.
const (
	ActionLaunchMiniApp = "launch_miniapp"
	ActionLaunchFrame   = "launch_frame"
)

// EmbedJSON returns the serialized embed for a share card showing imageURL
// and launching the app at appURL.
func EmbedJSON(appURL, imageURL, actionType string) string {
	root := strings.TrimRight(appURL, "/")
	e := Embed{
		Version:  "1",
		ImageURL: imageURL,
		Button: EmbedButton{
			Title: ButtonTitle,
			Action: EmbedAction{
				Type:                  actionType,
				Name:                  AppName,
				URL:                   root,
				SplashImageURL:        root + "/hero.png",
				SplashBackgroundColor: SplashBackgroundColor,
			},
		},
	}
	// no field of Embed can fail to marshal
	b, _ := json.Marshal(e)
	return string(b)
}
