/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/alsamon/pkg/alsa"
	"github.com/carverauto/alsamon/pkg/params"
)

const controlTimeout = 5 * time.Second

// ControlRequest asks the daemon for the parameters of one card. With Param
// empty the parameters of Kind are enumerated; otherwise Param is applied
// and the resulting Profile is returned.
type ControlRequest struct {
	Card  uint32          `json:"card"`
	Kind  string          `json:"kind"`
	Param json.RawMessage `json:"param,omitempty"`
}

// ControlReply carries encoded parameter objects or an error.
type ControlReply struct {
	Card   string            `json:"card"`
	Params []json.RawMessage `json:"params,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func (s *Server) serveControl() error {
	if s.nc == nil || s.profiles == nil || s.config.NATS == nil {
		return nil
	}

	subject := s.config.NATS.ControlSubject
	if subject == "" {
		return nil
	}

	sub, err := s.nc.Subscribe(subject, s.onControl)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.control = sub

	s.logger.Info().Str("subject", subject).Msg("serving parameter requests")

	return nil
}

func (s *Server) onControl(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	reply := s.handleControl(ctx, msg.Data)

	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode control reply")

		return
	}

	if err := msg.Respond(data); err != nil {
		s.logger.Debug().Err(err).Str("card", reply.Card).Msg("can't answer control request")
	}
}

func (s *Server) handleControl(ctx context.Context, data []byte) ControlReply {
	var req ControlRequest

	if err := json.Unmarshal(data, &req); err != nil {
		return ControlReply{Error: fmt.Sprintf("malformed request: %v", err)}
	}

	reply := ControlReply{Card: alsa.CardName(req.Card)}

	kind, err := params.ParseKind(req.Kind)
	if err != nil {
		reply.Error = err.Error()

		return reply
	}

	if len(req.Param) > 0 {
		if err := s.SetParam(ctx, req.Card, kind, req.Param); err != nil {
			reply.Error = err.Error()

			return reply
		}

		kind = params.KindProfile
	}

	list, err := s.EnumParams(ctx, req.Card, kind)
	if err != nil {
		reply.Error = err.Error()

		return reply
	}

	for _, p := range list {
		raw, err := params.Marshal(p)
		if err != nil {
			reply.Error = err.Error()

			return reply
		}

		reply.Params = append(reply.Params, raw)
	}

	return reply
}
