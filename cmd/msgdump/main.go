package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/dzm2020/gasmsg"
	"github.com/dzm2020/gasmsg/internal/config"
	"github.com/dzm2020/gasmsg/pkg/message"

	"github.com/spf13/pflag"
)

// msgdump 解码只含内置类型的消息并打印
//
//	msgdump -c gasmsg.yaml msg.bin
//	msgdump --hex 02050e2aa568656c6c6f
func main() {
	confPath := pflag.StringP("config", "c", "", "配置文件路径，为空使用默认配置")
	isHex := pflag.Bool("hex", false, "参数是十六进制编码的消息而不是文件")
	pflag.Parse()

	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	var err error
	cfg := config.Default()
	if *confPath != "" {
		if cfg, err = config.Load(*confPath); err != nil {
			fail(err)
		}
	}
	cfg.Registry.Builtins = true
	r, err := gasmsg.SetupWithConfig(cfg)
	if err != nil {
		fail(err)
	}

	var data []byte
	if *isHex {
		data, err = hex.DecodeString(strings.Join(pflag.Args(), ""))
	} else {
		data, err = os.ReadFile(pflag.Arg(0))
	}
	if err != nil {
		fail(err)
	}

	e, err := message.Unmarshal(r, data)
	if err != nil {
		fail(err)
	}
	defer e.Release()
	fmt.Printf("%s %s\n", e.Identity(), e)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "msgdump:", err)
	os.Exit(1)
}
