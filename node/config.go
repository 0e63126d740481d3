// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package node

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/crypto"
	"github.com/annchain/keymanager/common/hexutil"
	"github.com/annchain/keymanager/keymanager"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const datadirRegistry = "registry" // Path within the datadir to the registry database

// resolvePath resolves path in the data directory.
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(viper.GetString("dir.data"), path)
}

// RegistryPath is where the registry database lives under dir.data.
func RegistryPath() string {
	return resolvePath(datadirRegistry)
}

// Genesis seeds an empty registry: roles, the threshold key and the first committees.
type Genesis struct {
	Administrator string             `yaml:"administrator"`
	Manager       string             `yaml:"manager"`
	ThresholdKey  string             `yaml:"threshold_key"`
	Committees    []GenesisCommittee `yaml:"committees"`
}

type GenesisCommittee struct {
	EffectiveTimestamp uint64          `yaml:"effective_timestamp"`
	Members            []GenesisMember `yaml:"members"`
}

type GenesisMember struct {
	SigKey           string `yaml:"sig_key"`
	SigAddress       string `yaml:"sig_address"`
	DhKey            string `yaml:"dh_key"`
	DkgKey           string `yaml:"dkg_key"`
	NetworkAddress   string `yaml:"network_address"`
	AuxiliaryAddress string `yaml:"auxiliary_address"`
}

func LoadGenesis(path string) (*Genesis, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g := &Genesis{}
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("parse genesis %s: %v", path, err)
	}
	log.WithField("path", path).WithField("committees", len(g.Committees)).Info("genesis loaded")
	return g, nil
}

func parseAddress(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	return common.HexToAddress(s)
}

func (m GenesisMember) toMember() (keymanager.CommitteeMember, error) {
	var member keymanager.CommitteeMember
	var err error
	fields := []struct {
		name string
		src  string
		dst  *hexutil.Bytes
	}{
		{"sig_key", m.SigKey, &member.SigKey},
		{"dh_key", m.DhKey, &member.DhKey},
		{"dkg_key", m.DkgKey, &member.DkgKey},
	}
	for _, f := range fields {
		if *f.dst, err = hexutil.DecodeLoose(f.src); err != nil {
			return member, fmt.Errorf("%s: %v", f.name, err)
		}
	}
	if member.SigAddress, err = parseAddress(m.SigAddress); err != nil {
		return member, fmt.Errorf("sig_address: %v", err)
	}
	if member.SigAddress.IsZero() && len(member.SigKey) == 65 {
		member.SigAddress = crypto.PubkeyBytesToAddress(member.SigKey)
	}
	member.NetworkAddress = m.NetworkAddress
	member.AuxiliaryAddress = m.AuxiliaryAddress
	return member, nil
}

// Apply appends the genesis committees and threshold key to registry if it
// holds none yet. Committees go through the regular append path.
func (g *Genesis) Apply(registry *keymanager.Registry) error {
	manager := registry.Manager()
	if registry.NextId() == 0 {
		for i, gc := range g.Committees {
			members := make([]keymanager.CommitteeMember, len(gc.Members))
			for j, gm := range gc.Members {
				m, err := gm.toMember()
				if err != nil {
					return fmt.Errorf("committee %d member %d: %v", i, j, err)
				}
				members[j] = m
			}
			if _, err := registry.AppendCommittee(manager, gc.EffectiveTimestamp, members); err != nil {
				return fmt.Errorf("committee %d: %v", i, err)
			}
		}
	}
	if g.ThresholdKey != "" {
		if _, set := registry.ThresholdKey(); !set {
			key, err := hexutil.DecodeLoose(g.ThresholdKey)
			if err != nil {
				return fmt.Errorf("threshold_key: %v", err)
			}
			if err := registry.SetThresholdKey(manager, key); err != nil {
				return err
			}
		}
	}
	return nil
}
