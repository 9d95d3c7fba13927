package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mybaseweek/weekstats/internal/domain"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	OGWidth  = 1200
	OGHeight = 630

	PlaceholderName = "Farcaster user"

	cardWidth  = 1040
	cardHeight = 540
	cardPadX   = 44
	avatarSize = 112
)

var (
	fcPurple   = hex("#7C5CFF")
	deepPurple = hex("#4C1D95")
	white      = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	shadow     = color.NRGBA{R: 15, G: 23, B: 42, A: 150}
)

// Card is everything drawn on the preview image.
type Card struct {
	UserID          string
	Days            int
	Casts           int
	Likes           int
	Recasts         int
	Replies         int
	EngagementScore int
	DisplayName     string
	Handle          string
	// Avatar is drawn clipped to a circle; nil draws the initial instead.
	Avatar image.Image
}

// NewCard builds the card for userID. A nil s yields zero counters and the
// placeholder identity.
func NewCard(userID string, days int, s *domain.WeeklyStats) Card {
	c := Card{UserID: userID, Days: days}
	if s != nil {
		c.Days = s.WindowDays
		c.Casts = s.TotalPosts
		c.Likes = s.TotalLikes
		c.Recasts = s.TotalRecasts
		c.Replies = s.TotalReplies
		c.EngagementScore = s.EngagementScore
		c.DisplayName = s.AuthorDisplayName
		c.Handle = s.AuthorHandle
	}
	if c.Days <= 0 {
		c.Days = domain.DefaultWindowDays
	}
	return c
}

func (c Card) nameLine() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Handle != "" {
		return c.Handle
	}
	return PlaceholderName
}

func (c Card) handleLine() string {
	if c.Handle != "" {
		return "@" + c.Handle
	}
	return "fid " + c.UserID
}

// Initial is the letter shown when there is no avatar.
func (c Card) Initial() string {
	for _, s := range []string{c.DisplayName, c.Handle, "F"} {
		if r, _ := utf8.DecodeRuneInString(s); r != utf8.RuneError {
			return strings.ToUpper(string(r))
		}
	}
	return "F"
}

var (
	fontsOnce sync.Once
	fontsErr  error
	regular   *opentype.Font
	bold      *opentype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = opentype.Parse(gobold.TTF)
	})
	return fontsErr
}

// canvas owns the faces for one render; opentype faces are not safe for
// concurrent use.
type canvas struct {
	img   *image.RGBA
	faces map[string]font.Face
}

func (cv *canvas) face(f *opentype.Font, size float64) font.Face {
	key := fmt.Sprintf("%p/%v", f, size)
	if face, ok := cv.faces[key]; ok {
		return face
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// sizes are constants; a parse failure is caught by loadFonts
		panic(err)
	}
	cv.faces[key] = face
	return face
}

func (cv *canvas) close() {
	for _, f := range cv.faces {
		f.Close()
	}
}

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

func (cv *canvas) text(s string, face font.Face, col color.Color, x, baseline int, a align) {
	w := font.MeasureString(face, s).Ceil()
	switch a {
	case alignCenter:
		x -= w / 2
	case alignRight:
		x -= w
	}
	d := &font.Drawer{
		Dst:  cv.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

func (cv *canvas) shadowText(s string, face font.Face, x, baseline, offset int, a align) {
	cv.text(s, face, shadow, x, baseline+offset, a)
	cv.text(s, face, white, x, baseline, a)
}

func (cv *canvas) fill(r image.Rectangle, src image.Image, mask image.Image) {
	draw.DrawMask(cv.img, r, src, r.Min, mask, r.Min, draw.Over)
}

// RenderOG draws c as a 1200x630 PNG.
func RenderOG(w io.Writer, c Card) error {
	img, err := DrawCard(c)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// DrawCard rasterizes c without encoding it.
func DrawCard(c Card) (*image.RGBA, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	cv := &canvas{
		img:   image.NewRGBA(image.Rect(0, 0, OGWidth, OGHeight)),
		faces: map[string]font.Face{},
	}
	defer cv.close()

	// page background
	draw.Draw(cv.img, cv.img.Bounds(), radialGradient{
		cx: OGWidth / 2, cy: 0, radius: OGHeight * 1.4,
		stops: []stop{{0, hex("#1D1040")}, {0.45, hex("#020617")}, {1, hex("#020617")}},
	}, image.Point{}, draw.Src)

	card := image.Rect(0, 0, cardWidth, cardHeight).Add(image.Pt((OGWidth-cardWidth)/2, (OGHeight-cardHeight)/2))
	cv.fill(card.Add(image.Pt(0, 12)), image.NewUniform(withAlpha(hex("#0F172A"), 0.6)), roundedRect{card.Add(image.Pt(0, 12)), 40})
	cv.fill(card, radialGradient{
		cx: float64(card.Min.X + cardWidth/2), cy: float64(card.Min.Y), radius: cardWidth,
		stops: []stop{{0, hex("#A78BFA")}, {0.38, hex("#7C5CFF")}, {0.8, hex("#5B21FF")}},
	}, roundedRect{card, 40})

	midX := OGWidth / 2
	cv.drawAvatar(c, midX, card.Min.Y+36+avatarSize/2+4)

	y := card.Min.Y + 36 + avatarSize + 8 + 34
	cv.shadowText(ellipsize(c.nameLine(), cv.face(bold, 24), cardWidth-2*cardPadX), cv.face(bold, 24), midX, y, 1, alignCenter)
	y += 24
	cv.text(c.handleLine(), cv.face(regular, 16), withAlpha(white, 0.95), midX, y, alignCenter)
	y += 20
	cv.text("fid "+c.UserID, cv.face(regular, 13), withAlpha(white, 0.8), midX, y, alignCenter)

	y += 48
	cv.shadowText("Farcaster Weekly Stats", cv.face(bold, 32), midX, y, 2, alignCenter)
	y += 28
	cv.text(fmt.Sprintf("Last %d days on Farcaster", c.Days), cv.face(regular, 18), withAlpha(white, 0.96), midX, y, alignCenter)

	y += 24
	cv.drawStats(c, card.Min.X+cardPadX, y)

	footer := card.Max.Y - 66
	left := card.Min.X + cardPadX
	label := "Engagement score "
	cv.text(label, cv.face(regular, 16), withAlpha(white, 0.97), left, footer, alignLeft)
	cv.text(strconv.Itoa(c.EngagementScore), cv.face(bold, 16), white, left+font.MeasureString(cv.face(regular, 16), label).Ceil(), footer, alignLeft)
	cv.text("my-base-week · base mini app", cv.face(regular, 15), withAlpha(white, 0.9), card.Max.X-cardPadX, footer, alignRight)

	cv.text("Open the mini app to see full details", cv.face(regular, 13), withAlpha(white, 0.84), midX, card.Max.Y-34, alignCenter)

	return cv.img, nil
}

func (cv *canvas) drawAvatar(c Card, cx, cy int) {
	ring := circle{cx: float64(cx), cy: float64(cy), r: avatarSize/2 + 4}
	cv.fill(ring.Bounds(), radialGradient{
		cx: float64(cx) - avatarSize*0.2, cy: float64(cy - avatarSize/2), radius: avatarSize,
		stops: []stop{{0, fcPurple}, {1, deepPurple}},
	}, ring)

	disc := circle{cx: float64(cx), cy: float64(cy), r: avatarSize / 2}
	if c.Avatar != nil {
		thumb := SquareThumbnail(c.Avatar, avatarSize)
		r := disc.Bounds()
		draw.DrawMask(cv.img, r, thumb, image.Point{}, disc, r.Min, draw.Over)
		return
	}

	r := disc.Bounds()
	cv.fill(r, linearGradient{
		x0: float64(r.Min.X), y0: float64(r.Min.Y), x1: float64(r.Max.X), y1: float64(r.Max.Y),
		stops: []stop{{0, deepPurple}, {1, fcPurple}},
	}, disc)
	face := cv.face(bold, 48)
	m := face.Metrics()
	baseline := cy + (m.Ascent.Ceil()-m.Descent.Ceil())/2
	cv.text(c.Initial(), face, white, cx, baseline, alignCenter)
}

func (cv *canvas) drawStats(c Card, left, top int) {
	items := []struct {
		label string
		value int
	}{
		{"Casts", c.Casts},
		{"Likes", c.Likes},
		{"Recasts", c.Recasts},
		{"Replies", c.Replies},
	}

	const (
		gap    = 18
		height = 96
	)
	width := (cardWidth - 2*cardPadX - gap*(len(items)-1)) / len(items)
	border := withAlpha(hex("#DDD6FE"), 0.9)

	for i, item := range items {
		box := image.Rect(0, 0, width, height).Add(image.Pt(left+i*(width+gap), top))
		cv.fill(box, image.NewUniform(border), roundedRect{box, 24})
		inner := box.Inset(1)
		cv.fill(inner, linearGradient{
			x0: float64(inner.Min.X), y0: float64(inner.Min.Y), x1: float64(inner.Max.X), y1: float64(inner.Max.Y),
			stops: []stop{{0, color.NRGBA{R: 76, G: 29, B: 149, A: 245}}, {1, color.NRGBA{R: 55, G: 20, B: 130, A: 230}}},
		}, roundedRect{inner, 23})

		cv.text(item.label, cv.face(regular, 14), withAlpha(white, 0.94), box.Min.X+20, box.Min.Y+34, alignLeft)
		cv.text(strconv.Itoa(item.value), cv.face(bold, 34), white, box.Min.X+20, box.Min.Y+76, alignLeft)
	}
}

// ellipsize shortens s to fit maxWidth pixels.
func ellipsize(s string, face font.Face, maxWidth int) string {
	if font.MeasureString(face, s).Ceil() <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return "…"
}
