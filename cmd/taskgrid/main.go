package main

import (
	"flag"

	"taskgrid/internal/boardapi"
)

func main() {
	confPath := flag.String("config", ".env", "path to the env config file")
	flag.Parse()

	boardapi.InitAndServe(*confPath)
}
