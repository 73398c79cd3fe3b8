package config

import (
	log2 "log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andrewbot/andrewbot/common"
	"github.com/andrewbot/andrewbot/pkg/log"
	"github.com/stevenroose/gonfig"
)

type Params struct {
	Address              string `id:"address" short:"a" default:"0.0.0.0:5000" desc:"Webserver listening address"`
	Config               string `id:"config" short:"c" default:"$HOME/.config/andrewbot" desc:"AndrewBot configuration directory"`
	URL                  string `id:"url" default:"http://localhost:5000" desc:"Public base URL of the webserver, used in verification links"`
	BotToken             string `id:"bot-token" desc:"Chat platform bot token"`
	CommandPrefix        string `id:"command-prefix" default:"!" desc:"Bot command prefix"`
	RoleName             string `id:"role-name" default:"UW Verified" desc:"Name of the role granted to verified users"`
	AllowedDomain        string `id:"allowed-domain" default:"@uwaterloo.ca" desc:"Email domain suffix accepted for verification"`
	ExpirySeconds        int64  `id:"expiry-seconds" default:"1200" desc:"Seconds before a session expires"`
	CheckIntervalSeconds int64  `id:"check-interval-seconds" default:"60" desc:"Seconds between role sync sweeps"`
	SMTPHost             string `id:"smtp-host" desc:"SMTP server host; mail is printed to the log when empty"`
	SMTPPort             int    `id:"smtp-port" default:"587"`
	SMTPUser             string `id:"smtp-user"`
	SMTPPass             string `id:"smtp-pass"`
	SMTPFromAddr         string `id:"smtp-from-addr"`
	LogLevel             string `id:"log-level" default:"info" desc:"Optional values: trace, debug, info, warn or error"`
	LogFile              string `id:"log-file" desc:"The path of log file"`
	LogMaxDays           int64  `id:"log-max-days" default:"3" desc:"Maximum number of days to keep log files"`
	LogDisableColor      bool   `id:"log-disable-color"`
	LogDisableTimestamp  bool   `id:"log-disable-timestamp"`
}

var params Params

func initFunc() {
	err := gonfig.Load(&params, gonfig.Conf{
		FileDisable:       true,
		FlagIgnoreUnknown: false,
		EnvPrefix:         "ANDREWBOT_",
	})
	if err != nil {
		if err.Error() != "unexpected word while parsing flags: '-test.v'" {
			log2.Fatal(err)
		}
	}
	// replace all dots of the filename with underlines
	params.Config = filepath.Join(
		filepath.Dir(params.Config),
		strings.ReplaceAll(filepath.Base(params.Config), ".", "_"),
	)
	// expand '~' with user home
	params.Config, err = common.HomeExpand(params.Config)
	if err != nil {
		log2.Fatal(err)
	}
	params.LogFile, err = common.HomeExpand(params.LogFile)
	if err != nil {
		log2.Fatal(err)
	}
	if strings.Contains(params.Config, "$HOME") {
		if h, err := os.UserHomeDir(); err == nil {
			params.Config = strings.ReplaceAll(params.Config, "$HOME", h)
		}
	}
	if err := os.MkdirAll(params.Config, 0700); err != nil {
		log2.Fatal(err)
	}
	logWay := "console"
	if params.LogFile != "" {
		logWay = "file"
	}
	log.InitLog(logWay, params.LogFile, params.LogLevel, params.LogMaxDays, params.LogDisableColor, params.LogDisableTimestamp)
}

var once sync.Once

func GetConfig() *Params {
	once.Do(initFunc)
	return &params
}
