// Copyright 2024 The grups-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
grups-pwd estimates genetic relatedness between pairs of low-coverage
ancient-DNA samples by comparing observed pairwise-mismatch rates against
simulated pedigree distributions.
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"gopkg.in/yaml.v3"

	"github.com/grups-project/grups-go/config"
	"github.com/grups-project/grups-go/pipeline"
)

var (
	configPath = flag.String("config", "", "Path to a YAML run configuration (config.Run)")
	overwrite  = flag.Bool("overwrite", false, "Override the config file's overwrite policy to true")
)

func grupsPwdUsage() {
	fmt.Printf("Usage: %s -config <run.yaml>\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = grupsPwdUsage
	shutdown := grail.Init()
	defer shutdown()

	if *configPath == "" {
		log.Fatalf("missing required -config flag; please check flag syntax")
	}
	data, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("reading config %s: %v", *configPath, err)
	}
	var cfg config.Run
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("parsing config %s: %v", *configPath, err)
	}
	if *overwrite {
		cfg.Overwrite = true
	}

	ctx := vcontext.Background()
	if err := pipeline.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
