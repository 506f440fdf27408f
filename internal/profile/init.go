package profile

import "fmt"

// InitProfile returns a commented YAML starter template for a new profile.
func InitProfile(name string) string {
	return fmt.Sprintf(`name: %s
description: Custom zone mapping profile

# Garment type -> zones it covers. Listed types replace the built-in
# entry; unlisted types keep the built-in zones.
# Zones: head hair face neck chest waist hips genitals legs feet hands arms
zone_mappings:
  jacket: [chest, waist, arms]
  # cape: [neck]
  # boots: [feet, legs]
`, name)
}
