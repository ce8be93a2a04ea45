// Package config loads and validates the bridge configuration from a .env file
// and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"discordbridge/internal/jsonutil"
)

// DefaultEnvFile is the path used when no --config flag is given.
const DefaultEnvFile = ".env"

// Schedule types accepted in SCHEDULE_TYPE.
var validScheduleTypes = map[string]bool{
	"daily":   true,
	"weekly":  true,
	"monthly": true,
	"custom":  true,
}

// Summary languages accepted in LANG.
var validLangs = map[string]bool{
	"en": true,
	"ko": true,
}

// Required keys per section, in the order they are reported.
var requiredKeys = []struct {
	section string
	keys    []string
}{
	{"discord", []string{"DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET", "DISCORD_PUBLIC_KEY", "DISCORD_BOT_TOKEN"}},
	{"llm", []string{"LLM_PROVIDER", "LLM_MODEL"}},
	{"smtp", []string{"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "FROM_EMAIL", "TO_EMAILS"}},
	{"general", []string{"INPUT_DIR", "OUTPUT_DIR", "SCHEDULE_CRON", "LANG", "TIMEZONE"}},
}

// DiscordServer is one guild and the channels summarized in it.
// A ChannelIDs of ["*"] means every channel.
type DiscordServer struct {
	Name       string   `yaml:"name"`
	GuildID    string   `yaml:"guild_id"`
	ChannelIDs []string `yaml:"channel_ids"`
}

// DiscordConfig holds bot credentials and the servers to summarize.
type DiscordConfig struct {
	ClientID     string          `yaml:"client_id"`
	ClientSecret string          `yaml:"client_secret"`
	PublicKey    string          `yaml:"public_key"`
	BotToken     string          `yaml:"bot_token"`
	Servers      []DiscordServer `yaml:"servers"`
}

// LLMConfig selects the summarization provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai | chatgpt | google | gemini | ollama
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Host      string   `yaml:"host"`
	Port      int      `yaml:"port"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	UseTLS    bool     `yaml:"use_tls"`
	FromEmail string   `yaml:"from_email"`
	ToEmails  []string `yaml:"to_emails"`
}

// AppConfig is the validated configuration for a bridge run.
type AppConfig struct {
	Discord      DiscordConfig `yaml:"discord"`
	LLM          LLMConfig     `yaml:"llm"`
	SMTP         SMTPConfig    `yaml:"smtp"`
	InputDir     string        `yaml:"input_dir"`
	OutputDir    string        `yaml:"output_dir"`
	ScheduleCron string        `yaml:"schedule_cron"`
	ScheduleType string        `yaml:"schedule_type"`
	Lang         string        `yaml:"lang"`
	Timezone     string        `yaml:"timezone"`
	// Source is the env file the values were read from, if it existed.
	Source string `yaml:"source,omitempty"`
}

// ValidationError lists required keys that were empty or unset, grouped by section.
type ValidationError struct {
	Missing map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, req := range requiredKeys {
		if keys, ok := e.Missing[req.section]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", req.section, strings.Join(keys, ", ")))
		}
	}
	return "missing config keys: " + strings.Join(parts, "; ")
}

// Load reads envPath (when it exists) and the process environment, then validates
// the result. Environment variables take precedence over file values.
// OUTPUT_DIR is created if missing.
func Load(envPath string) (*AppConfig, error) {
	v, source, err := newViper(envPath)
	if err != nil {
		return nil, err
	}
	get := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}

	missing := make(map[string][]string)
	for _, req := range requiredKeys {
		for _, k := range req.keys {
			if get(k) == "" {
				missing[req.section] = append(missing[req.section], k)
			}
		}
	}

	scheduleType := strings.ToLower(get("SCHEDULE_TYPE"))
	if scheduleType == "" {
		scheduleType = "daily"
	}
	if !validScheduleTypes[scheduleType] {
		return nil, fmt.Errorf("SCHEDULE_TYPE must be one of %s; got '%s'", sortedKeys(validScheduleTypes), scheduleType)
	}

	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	lang := strings.ToLower(get("LANG"))
	if !validLangs[lang] {
		return nil, fmt.Errorf("LANG must be one of %s; got '%s'", sortedKeys(validLangs), lang)
	}

	inputDir := get("INPUT_DIR")
	if _, err := os.Stat(inputDir); err != nil {
		return nil, fmt.Errorf("INPUT_DIR does not exist: %s", inputDir)
	}
	outputDir := get("OUTPUT_DIR")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create OUTPUT_DIR: %w", err)
	}

	servers, err := parseServers(get("DISCORD_GUILD_IDS"), get("DISCORD_CHANNEL_IDS"), get("DISCORD_SERVERS"))
	if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(get("SMTP_PORT"))
	if err != nil {
		return nil, fmt.Errorf("SMTP_PORT must be an integer: %w", err)
	}
	useTLS := true
	if raw := get("SMTP_USE_TLS"); raw != "" {
		useTLS = parseBool(raw)
	}

	provider := strings.ToLower(get("LLM_PROVIDER"))
	apiKey := get("LLM_API_KEY")
	if apiKey == "" {
		switch provider {
		case "openai", "chatgpt":
			apiKey = get("OPEN_AI_API_KEY")
		case "google", "gemini":
			apiKey = get("GOOGLE_AI_API_KEY")
		}
	}

	return &AppConfig{
		Discord: DiscordConfig{
			ClientID:     get("DISCORD_CLIENT_ID"),
			ClientSecret: get("DISCORD_CLIENT_SECRET"),
			PublicKey:    get("DISCORD_PUBLIC_KEY"),
			BotToken:     get("DISCORD_BOT_TOKEN"),
			Servers:      servers,
		},
		LLM: LLMConfig{
			Provider: provider,
			Model:    get("LLM_MODEL"),
			APIKey:   apiKey,
			BaseURL:  get("LLM_BASE_URL"),
		},
		SMTP: SMTPConfig{
			Host:      get("SMTP_HOST"),
			Port:      port,
			Username:  get("SMTP_USERNAME"),
			Password:  get("SMTP_PASSWORD"),
			UseTLS:    useTLS,
			FromEmail: get("FROM_EMAIL"),
			ToEmails:  splitList(get("TO_EMAILS")),
		},
		InputDir:     inputDir,
		OutputDir:    outputDir,
		ScheduleCron: get("SCHEDULE_CRON"),
		ScheduleType: scheduleType,
		Lang:         lang,
		Timezone:     get("TIMEZONE"),
		Source:       source,
	}, nil
}

// newViper builds a viper instance over the env file and the process environment.
// A missing env file is not an error.
func newViper(envPath string) (*viper.Viper, string, error) {
	v := viper.New()
	v.AutomaticEnv()

	if envPath == "" {
		return v, "", nil
	}
	info, err := os.Stat(envPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, "", nil
		}
		return nil, "", fmt.Errorf("stat env file: %w", err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("env file %s is a directory", envPath)
	}
	v.SetConfigFile(envPath)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, "", fmt.Errorf("read env file: %w", err)
	}
	return v, envPath, nil
}

// parseServers builds the server list from DISCORD_SERVERS (JSON) or, when unset,
// from the comma-separated guild and channel id lists.
func parseServers(guildIDsRaw, channelIDsRaw, serversRaw string) ([]DiscordServer, error) {
	if serversRaw != "" {
		var payload interface{}
		if err := jsonutil.JSON.Unmarshal([]byte(serversRaw), &payload); err != nil {
			return nil, fmt.Errorf("DISCORD_SERVERS is not valid JSON: %w", err)
		}
		entries, ok := payload.([]interface{})
		if !ok {
			return nil, errors.New("DISCORD_SERVERS must be a JSON array of server definitions")
		}

		servers := make([]DiscordServer, 0, len(entries))
		for idx, raw := range entries {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("server entry at index %d must be an object", idx)
			}
			name := jsonutil.ToString(entry["name"])
			if name == "" {
				name = fmt.Sprintf("server-%d", idx)
			}
			guildID := strings.TrimSpace(jsonutil.ToString(entry["guild_id"]))
			if guildID == "" {
				guildID = strings.TrimSpace(jsonutil.ToString(entry["guild"]))
			}
			if guildID == "" {
				return nil, fmt.Errorf("server entry '%s' must include a guild_id", name)
			}
			channels := channelList(entry["channel_ids"])
			if len(channels) == 0 {
				channels = channelList(entry["channels"])
			}
			if len(channels) == 0 {
				channels = []string{"*"}
			}
			servers = append(servers, DiscordServer{Name: name, GuildID: guildID, ChannelIDs: channels})
		}
		return servers, nil
	}

	guildIDs := splitList(guildIDsRaw)
	channelIDs := splitList(channelIDsRaw)
	if len(guildIDs) == 0 {
		return nil, errors.New("at least one DISCORD_GUILD_IDS entry is required when DISCORD_SERVERS is not set")
	}
	if len(channelIDs) == 0 {
		return nil, errors.New("at least one DISCORD_CHANNEL_IDS entry is required when DISCORD_SERVERS is not set")
	}
	servers := make([]DiscordServer, 0, len(guildIDs))
	for _, gid := range guildIDs {
		servers = append(servers, DiscordServer{
			Name:       "guild-" + gid,
			GuildID:    gid,
			ChannelIDs: append([]string(nil), channelIDs...),
		})
	}
	return servers, nil
}

// channelList accepts a comma-separated string or a JSON array of ids.
func channelList(raw interface{}) []string {
	var channels []string
	switch c := raw.(type) {
	case string:
		channels = splitList(c)
	case []interface{}:
		for _, id := range c {
			if s := strings.TrimSpace(jsonutil.ToString(id)); s != "" {
				channels = append(channels, s)
			}
		}
	}
	return channels
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
