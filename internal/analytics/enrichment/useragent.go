package enrichment

import (
	ua "github.com/mileusna/useragent"
)

// UAClassification holds mutually exclusive device, browser and OS categories
// derived from a User-Agent string.
type UAClassification struct {
	Device  string
	Browser string
	OS      string
}

// DeviceDetector classifies User-Agent strings.
type DeviceDetector struct{}

// NewDeviceDetector creates a new DeviceDetector.
func NewDeviceDetector() *DeviceDetector {
	return &DeviceDetector{}
}

// Classify returns the device type, browser and OS from a User-Agent string.
// Device is one of "Desktop", "Mobile", "Tablet", "Bot", or "Unknown";
// browser and OS fall back to "Unknown" when the parser cannot name them.
func (d *DeviceDetector) Classify(uaString string) UAClassification {
	if uaString == "" {
		return UAClassification{Device: "Unknown", Browser: "Unknown", OS: "Unknown"}
	}

	parsed := ua.Parse(uaString)

	c := UAClassification{
		Browser: parsed.Name,
		OS:      parsed.OS,
	}
	if c.Browser == "" {
		c.Browser = "Unknown"
	}
	if c.OS == "" {
		c.OS = "Unknown"
	}

	// Bots win over device hints: crawler traffic is tracked separately.
	switch {
	case parsed.Bot:
		c.Device = "Bot"
	case parsed.Tablet:
		c.Device = "Tablet"
	case parsed.Mobile:
		c.Device = "Mobile"
	case parsed.Desktop:
		c.Device = "Desktop"
	default:
		c.Device = "Unknown"
	}

	return c
}
