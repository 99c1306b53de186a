// models/character.go
package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAvatar wraps every avatar validation failure.
var ErrInvalidAvatar = errors.New("invalid avatar option")

// Avatar option enums. Each option maps to the style value the avatar
// renderer expects; the lookup tables below must cover every constant.
type (
	AvatarSkin      string
	AvatarHair      string
	AvatarEyes      string
	AvatarMouth     string
	AvatarAccessory string
)

const (
	SkinLight  AvatarSkin = "light"
	SkinMedium AvatarSkin = "medium"
	SkinTan    AvatarSkin = "tan"
	SkinDark   AvatarSkin = "dark"
)

const (
	HairShort AvatarHair = "short"
	HairLong  AvatarHair = "long"
	HairCurly AvatarHair = "curly"
	HairBun   AvatarHair = "bun"
	HairBald  AvatarHair = "bald"
)

const (
	EyesDefault AvatarEyes = "default"
	EyesHappy   AvatarEyes = "happy"
	EyesWink    AvatarEyes = "wink"
	EyesSleepy  AvatarEyes = "sleepy"
)

const (
	MouthSmile   AvatarMouth = "smile"
	MouthNeutral AvatarMouth = "neutral"
	MouthLaugh   AvatarMouth = "laugh"
)

const (
	AccessoryNone       AvatarAccessory = "none"
	AccessoryGlasses    AvatarAccessory = "glasses"
	AccessoryHeadphones AvatarAccessory = "headphones"
	AccessoryHat        AvatarAccessory = "hat"
)

var skinStyles = map[AvatarSkin]string{
	SkinLight:  "f2d3b1",
	SkinMedium: "d08b5b",
	SkinTan:    "ae5d29",
	SkinDark:   "614335",
}

var hairStyles = map[AvatarHair]string{
	HairShort: "short01",
	HairLong:  "long03",
	HairCurly: "long16",
	HairBun:   "long20",
	HairBald:  "",
}

var eyesStyles = map[AvatarEyes]string{
	EyesDefault: "variant01",
	EyesHappy:   "variant09",
	EyesWink:    "variant14",
	EyesSleepy:  "variant21",
}

var mouthStyles = map[AvatarMouth]string{
	MouthSmile:   "variant01",
	MouthNeutral: "variant10",
	MouthLaugh:   "variant22",
}

var accessoryStyles = map[AvatarAccessory]string{
	AccessoryNone:       "",
	AccessoryGlasses:    "glasses01",
	AccessoryHeadphones: "headphones01",
	AccessoryHat:        "hat02",
}

// Avatar is the set of options the user picked for their character.
type Avatar struct {
	Skin      AvatarSkin      `json:"skin,omitempty"`
	Hair      AvatarHair      `json:"hair,omitempty"`
	Eyes      AvatarEyes      `json:"eyes,omitempty"`
	Mouth     AvatarMouth     `json:"mouth,omitempty"`
	Accessory AvatarAccessory `json:"accessory,omitempty"`
}

// DefaultAvatar is assigned to new profiles.
var DefaultAvatar = Avatar{
	Skin:      SkinMedium,
	Hair:      HairShort,
	Eyes:      EyesDefault,
	Mouth:     MouthSmile,
	Accessory: AccessoryNone,
}

// Validate rejects option values that have no style entry. Empty fields
// are allowed so partial updates can be checked.
func (a Avatar) Validate() error {
	if _, ok := skinStyles[a.Skin]; a.Skin != "" && !ok {
		return fmt.Errorf("%w: unknown skin %q", ErrInvalidAvatar, a.Skin)
	}
	if _, ok := hairStyles[a.Hair]; a.Hair != "" && !ok {
		return fmt.Errorf("%w: unknown hair %q", ErrInvalidAvatar, a.Hair)
	}
	if _, ok := eyesStyles[a.Eyes]; a.Eyes != "" && !ok {
		return fmt.Errorf("%w: unknown eyes %q", ErrInvalidAvatar, a.Eyes)
	}
	if _, ok := mouthStyles[a.Mouth]; a.Mouth != "" && !ok {
		return fmt.Errorf("%w: unknown mouth %q", ErrInvalidAvatar, a.Mouth)
	}
	if _, ok := accessoryStyles[a.Accessory]; a.Accessory != "" && !ok {
		return fmt.Errorf("%w: unknown accessory %q", ErrInvalidAvatar, a.Accessory)
	}
	return nil
}

// Styles returns the renderer values of the avatar, keyed by option name.
func (a Avatar) Styles() map[string]string {
	return map[string]string{
		"skinColor": skinStyles[a.Skin],
		"hair":      hairStyles[a.Hair],
		"eyes":      eyesStyles[a.Eyes],
		"mouth":     mouthStyles[a.Mouth],
		"accessory": accessoryStyles[a.Accessory],
	}
}

// Character is the gamified avatar attached to a profile.
type Character struct {
	Name     string `json:"name,omitempty"`
	Avatar   Avatar `json:"avatar"`
	Endolots int64  `json:"endolots"`
}

// Profile is the user document in the remote store.
type Profile struct {
	UserID    string     `json:"userId"`
	Email     string     `json:"email,omitempty"`
	FirstName string     `json:"firstName,omitempty"`
	Character Character  `json:"character"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// EndolotsField is the document path of the balance inside a profile.
const EndolotsField = "character.endolots"
