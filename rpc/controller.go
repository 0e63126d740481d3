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
package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/crypto"
	"github.com/annchain/keymanager/common/hexutil"
	"github.com/annchain/keymanager/keymanager"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RpcController struct {
	KeyManager keymanager.KeyManager
}

// AppendCommitteeRequest registers a committee. Members without a sig_address
// get one derived from an uncompressed sig_key.
type AppendCommitteeRequest struct {
	Caller             common.Address               `json:"caller"`
	EffectiveTimestamp uint64                       `json:"effective_timestamp"`
	Members            []keymanager.CommitteeMember `json:"members"`
}

type PruneRequest struct {
	Caller common.Address `json:"caller"`
	UpTo   uint64         `json:"up_to"`
}

type ThresholdKeyRequest struct {
	Caller common.Address `json:"caller"`
	Key    hexutil.Bytes  `json:"key"`
}

type ManagerRequest struct {
	Caller  common.Address `json:"caller"`
	Manager common.Address `json:"manager"`
}

// VerifyRequest carries signatures as one concatenation of 65 byte entries.
type VerifyRequest struct {
	Digest     common.Hash   `json:"digest"`
	Signatures hexutil.Bytes `json:"signatures"`
}

// VerifyOrderedRequest carries one signature per member, "0x" where the member did not sign.
type VerifyOrderedRequest struct {
	Digest     common.Hash     `json:"digest"`
	Signatures []hexutil.Bytes `json:"signatures"`
}

type ActiveCommitteeResp struct {
	Id        uint64                `json:"id"`
	Committee *keymanager.Committee `json:"committee"`
}

type ThresholdKeyResp struct {
	Set bool          `json:"set"`
	Key hexutil.Bytes `json:"key"`
}

type VerifyResp struct {
	Valid bool `json:"valid"`
}

func cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
}

// Status returns counters, roles and the active committee id.
func (r *RpcController) Status(c *gin.Context) {
	cors(c)
	Response(c, http.StatusOK, nil, gin.H{
		"version": r.KeyManager.Version(),
		"status":  r.KeyManager.Status(),
	})
}

// Committee returns the committee stored under :id.
func (r *RpcController) Committee(c *gin.Context) {
	cors(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("id format error"), nil)
		return
	}
	committee, err := r.KeyManager.GetCommittee(id)
	if err != nil {
		Response(c, errorStatus(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, committee)
}

// Committees lists every retained committee.
func (r *RpcController) Committees(c *gin.Context) {
	cors(c)
	status := r.KeyManager.Status()
	committees := make([]*keymanager.Committee, 0, status.Retained)
	for id := status.OldestStoredId; id < status.NextId; id++ {
		committee, err := r.KeyManager.GetCommittee(id)
		if err != nil {
			// pruned concurrently
			continue
		}
		committees = append(committees, committee)
	}
	Response(c, http.StatusOK, nil, committees)
}

func (r *RpcController) ActiveCommittee(c *gin.Context) {
	cors(c)
	id, err := r.KeyManager.ResolveActiveCommittee()
	if err != nil {
		Response(c, errorStatus(err), err, nil)
		return
	}
	committee, err := r.KeyManager.GetCommittee(id)
	if err != nil {
		Response(c, errorStatus(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, ActiveCommitteeResp{Id: id, Committee: committee})
}

func (r *RpcController) ThresholdKey(c *gin.Context) {
	cors(c)
	key, set := r.KeyManager.ThresholdKey()
	Response(c, http.StatusOK, nil, ThresholdKeyResp{Set: set, Key: key})
}

// Events replays the notification journal starting at sequence number from.
func (r *RpcController) Events(c *gin.Context) {
	cors(c)
	var from uint64
	if s := c.Query("from"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			Response(c, http.StatusBadRequest, fmt.Errorf("from format error"), nil)
			return
		}
		from = v
	}
	entries := r.KeyManager.Events(from)
	if entries == nil {
		entries = []keymanager.JournalEntry{}
	}
	Response(c, http.StatusOK, nil, entries)
}

func (r *RpcController) AppendCommittee(c *gin.Context) {
	var req AppendCommitteeRequest
	cors(c)
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	for i := range req.Members {
		fillSigAddress(&req.Members[i])
	}
	id, err := r.KeyManager.AppendCommittee(req.Caller, req.EffectiveTimestamp, req.Members)
	if err != nil {
		logrus.WithError(err).WithField("caller", req.Caller.Hex()).Debug("append committee rejected")
		Response(c, errorStatus(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, gin.H{"id": id})
}

func fillSigAddress(m *keymanager.CommitteeMember) {
	if !m.SigAddress.IsZero() {
		return
	}
	if len(m.SigKey) == 65 && m.SigKey[0] == 4 {
		m.SigAddress = crypto.PubkeyBytesToAddress(m.SigKey)
	}
}

func (r *RpcController) PruneCommittees(c *gin.Context) {
	var req PruneRequest
	cors(c)
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	if err := r.KeyManager.PruneUpTo(req.Caller, req.UpTo); err != nil {
		Response(c, errorStatus(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, gin.H{"oldest_stored_id": req.UpTo + 1})
}

func (r *RpcController) SetThresholdKey(c *gin.Context) {
	var req ThresholdKeyRequest
	cors(c)
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	if err := r.KeyManager.SetThresholdKey(req.Caller, req.Key); err != nil {
		Response(c, errorStatus(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, true)
}

func (r *RpcController) SetManager(c *gin.Context) {
	var req ManagerRequest
	cors(c)
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	if err := r.KeyManager.SetManager(req.Caller, req.Manager); err != nil {
		Response(c, errorStatus(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, true)
}

func (r *RpcController) VerifyQuorum(c *gin.Context) {
	var req VerifyRequest
	cors(c)
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	valid, err := r.KeyManager.VerifyQuorum(req.Digest, req.Signatures)
	if err != nil {
		Response(c, errorStatus(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, VerifyResp{Valid: valid})
}

func (r *RpcController) VerifyQuorumOrdered(c *gin.Context) {
	var req VerifyOrderedRequest
	cors(c)
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	sigs := make([][]byte, len(req.Signatures))
	for i, s := range req.Signatures {
		sigs[i] = s
	}
	valid, err := r.KeyManager.VerifyQuorumOrdered(req.Digest, sigs)
	if err != nil {
		Response(c, errorStatus(err), err, nil)
		return
	}
	Response(c, http.StatusOK, nil, VerifyResp{Valid: valid})
}

// errorStatus maps a key manager error to the HTTP status reported to callers.
func errorStatus(err error) int {
	switch keymanager.KindOf(err) {
	case keymanager.AuthorizationError:
		return http.StatusForbidden
	case keymanager.ValidationError:
		return http.StatusBadRequest
	case keymanager.StateError:
		if errors.Is(err, keymanager.ErrNotFound) || errors.Is(err, keymanager.ErrNoCommitteeScheduled) {
			return http.StatusNotFound
		}
		return http.StatusConflict
	case keymanager.SafetyError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Response(c *gin.Context, status int, err error, data interface{}) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{
		"err":  msg,
		"code": keymanager.CodeOf(err),
		"data": data,
	})
}
