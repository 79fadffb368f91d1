// Package gonetworkmanager reads NetworkManager state through the nmcli command line tool.
package gonetworkmanager

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"nmprofiles/profilemenu"
)

// --- Constants for nmcli field names ---
const (
	NmcliFieldConnectionName   = "NAME"
	NmcliFieldConnectionUUID   = "UUID"
	NmcliFieldConnectionType   = "TYPE"
	NmcliFieldConnectionDevice = "DEVICE"
	NmcliFieldWifiSSID         = "SSID"

	ConnectionTypeWifi = "wifi"
	// nmcli reports the long setting name in multiline listings of older releases.
	connectionTypeWireless = "802-11-wireless"
	eightZeroTwo11SSID     = "802-11-wireless.ssid"

	nmcliBinary = "nmcli"
)

// --- Type Definitions ---
type ConnectionProfile map[string]string

// runner executes nmcli and returns stdout without trailing line endings.
type runner func(ctx context.Context, args ...string) (string, error)

var logger = zap.NewNop()

// SetLogger replaces the package logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// --- Core nmcli Interaction ---
func parseNmcliMultilineOutput(output string) ([]map[string]string, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return []map[string]string{}, nil
	}
	lines := strings.Split(output, "\n")
	var records []map[string]string
	var currentRecord map[string]string
	var firstKeyOfRecord string
	for i, line := range lines {
		trimmedLine := strings.TrimLeft(strings.TrimRight(line, "\r"), " \t")
		if strings.TrimSpace(trimmedLine) == "" {
			continue
		}
		parts := strings.SplitN(trimmedLine, ":", 2)
		if len(parts) != 2 {
			if i == 0 && !strings.Contains(trimmedLine, ":") {
				continue
			}
			return nil, fmt.Errorf("malformed line in multiline output: \"%s\"", trimmedLine)
		}
		key := strings.TrimSpace(parts[0])
		// Only trim leading whitespace from the value to preserve trailing spaces in SSIDs.
		value := strings.TrimLeft(parts[1], " \t")
		if key == "" {
			return nil, fmt.Errorf("empty key for value: \"%s\"", value)
		}
		if currentRecord == nil {
			currentRecord = make(map[string]string)
			firstKeyOfRecord = key
		} else if key == firstKeyOfRecord && len(currentRecord) > 0 {
			records = append(records, currentRecord)
			currentRecord = make(map[string]string)
		}
		currentRecord[key] = value
	}
	if len(currentRecord) > 0 {
		records = append(records, currentRecord)
	}
	return records, nil
}

func runNmcli(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, nmcliBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logger.Debug("Executing nmcli command", zap.Strings("args", cmd.Args))
	err := cmd.Run()
	stderrStr := strings.TrimSpace(stderr.String())
	// Only line endings are trimmed; a single-value answer may end in spaces that belong to an SSID.
	stdoutStr := strings.TrimRight(stdout.String(), "\r\n")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdoutStr, fmt.Errorf("nmcli command '%s' interrupted: %w", strings.Join(args, " "), ctxErr)
		}
		if stderrStr != "" {
			logger.Debug("nmcli command stderr", zap.String("args", strings.Join(args, " ")), zap.String("stderr", stderrStr))
			return stdoutStr, fmt.Errorf("nmcli command '%s' failed: %s (underlying error: %w)", strings.Join(args, " "), stderrStr, err)
		}
		return stdoutStr, fmt.Errorf("nmcli command '%s' failed: %w", strings.Join(args, " "), err)
	}
	if stderrStr != "" {
		logger.Warn("nmcli command succeeded but produced stderr", zap.String("args", strings.Join(args, " ")), zap.String("stderr", stderrStr))
	}
	return stdoutStr, nil
}

// Available reports whether nmcli can be run on this host.
func Available() error {
	if _, err := os.Stat("/usr/bin/nmcli"); err == nil {
		return nil
	}
	if _, err := exec.LookPath(nmcliBinary); err != nil {
		return fmt.Errorf("'nmcli' is not installed or not found in PATH")
	}
	return nil
}

// --- Client ---

// Client is the WiFi source backed by NetworkManager. The zero value runs the real nmcli.
type Client struct {
	run runner
}

// NewClient returns a client that shells out to nmcli.
func NewClient() *Client {
	return &Client{run: runNmcli}
}

func (c *Client) nmcli(ctx context.Context, args ...string) (string, error) {
	if c == nil || c.run == nil {
		return runNmcli(ctx, args...)
	}
	return c.run(ctx, args...)
}

func (c *Client) multiline(ctx context.Context, args ...string) ([]map[string]string, error) {
	output, err := c.nmcli(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("nmcli for multiline failed (args: %v): %w", args, err)
	}
	return parseNmcliMultilineOutput(output)
}

// ConnectionProfiles lists connection profiles, ordered by name.
func (c *Client) ConnectionProfiles(ctx context.Context, activeOnly bool) ([]ConnectionProfile, error) {
	args := []string{"-m", "multiline", "connection", "show", "--order", "name"}
	if activeOnly {
		args = append(args, "--active")
	}
	rawProfiles, err := c.multiline(ctx, args...)
	if err != nil {
		return nil, err
	}
	profiles := make([]ConnectionProfile, len(rawProfiles))
	for i, rp := range rawProfiles {
		profiles[i] = ConnectionProfile(rp)
	}
	return profiles, nil
}

// ConfiguredNetworks implements profilemenu.WifiSource. Each Wi-Fi profile becomes one network named by its SSID
// (see ProfileSSID) and marked current when the profile is active.
func (c *Client) ConfiguredNetworks(ctx context.Context) ([]profilemenu.Network, error) {
	profiles, err := c.ConnectionProfiles(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list configured networks: %w", err)
	}

	// A failing active listing only costs the connected marker.
	activeUUIDs := make(map[string]struct{})
	active, err := c.ConnectionProfiles(ctx, true)
	if err != nil {
		logger.Warn("Failed to list active profiles", zap.Error(err))
	}
	for _, p := range active {
		if IsWifiProfile(p) {
			activeUUIDs[p[NmcliFieldConnectionUUID]] = struct{}{}
		}
	}

	var networks []profilemenu.Network
	for _, p := range profiles {
		if !IsWifiProfile(p) {
			continue
		}
		name, err := c.ProfileSSID(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("list configured networks: %w", err)
		}
		_, current := activeUUIDs[p[NmcliFieldConnectionUUID]]
		networks = append(networks, profilemenu.Network{Name: name, Current: current})
	}
	logger.Debug("Configured Wi-Fi networks", zap.Int("profiles", len(profiles)), zap.Int("wifi", len(networks)))
	return networks, nil
}

// ProfileSSID returns the network name a Wi-Fi profile connects to. Connection listings do not carry the SSID,
// so it is read from the profile's settings; the profile name is the fallback when none is stored.
// Only a cancelled ctx is an error, other lookup failures fall back.
func (c *Client) ProfileSSID(ctx context.Context, profile ConnectionProfile) (string, error) {
	if ssid := GetSSIDFromProfile(profile); ssid != "" {
		return ssid, nil
	}
	name := profile[NmcliFieldConnectionName]
	uuid := profile[NmcliFieldConnectionUUID]
	if uuid == "" {
		return name, nil
	}
	// -e no keeps colons and backslashes in the SSID unescaped.
	ssid, err := c.nmcli(ctx, "-e", "no", "-g", eightZeroTwo11SSID, "connection", "show", "uuid", uuid)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		logger.Warn("Failed to read profile SSID, using profile name", zap.String("uuid", uuid), zap.String("name", name), zap.Error(err))
		return name, nil
	}
	if ssid == "" {
		return name, nil
	}
	return ssid, nil
}

// IsWifiProfile reports whether a profile is a Wi-Fi connection.
func IsWifiProfile(profile ConnectionProfile) bool {
	t := profile[NmcliFieldConnectionType]
	return t == ConnectionTypeWifi || t == connectionTypeWireless
}

// GetSSIDFromProfile extracts the SSID from a connection profile map.
// NetworkManager might store SSID under different keys depending on context.
func GetSSIDFromProfile(profile ConnectionProfile) string {
	if profile == nil {
		return ""
	}
	ssid := profile[NmcliFieldWifiSSID]
	if ssid == "" {
		ssid = profile[eightZeroTwo11SSID]
	}
	return ssid
}
