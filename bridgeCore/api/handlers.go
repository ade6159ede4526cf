package api

import (
	"context"
	"encoding/json"
	"net/http"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"

	"github.com/pushchain/push-bridge-core/bridgeCore/aggregator"
	"github.com/pushchain/push-bridge-core/bridgeCore/gate"
	"github.com/pushchain/push-bridge-core/bridgeCore/orders"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// maxBodyBytes bounds POST bodies, external call data included.
const maxBodyBytes = 64 << 10

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleParams handles GET /api/v1/params
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	params, err := s.backend.GetParams(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: params})
}

// handleOracles handles GET /api/v1/oracles
func (s *Server) handleOracles(w http.ResponseWriter, r *http.Request) {
	oracles, err := s.backend.ListOracles(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: oracles})
}

// handleSubmission handles GET /api/v1/submissions/{id}
func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	info, err := s.backend.GetSubmissionInfo(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: info})
}

// handleSubmitSignature handles POST /api/v1/submissions/{id}/signatures
func (s *Server) handleSubmitSignature(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req SignatureRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		s.writeError(w, errorsmod.Wrapf(types.ErrWrongArgument, "signature: %s", err))
		return
	}

	oracle, confirmed, err := s.backend.SubmitSigned(r.Context(), id, sig)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: SignatureResponse{Oracle: oracle, Confirmed: confirmed}})
}

// handleOrder handles GET /api/v1/orders/{id}
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	order, err := s.backend.GetOrder(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: toOrderView(order)})
}

// handleCheckSubmission handles POST /api/v1/submissions/{id}/check
func (s *Server) handleCheckSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body CheckBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	req := gate.CheckRequest{SubmissionID: id, DebridgeID: body.DebridgeID, Signatures: body.Signatures}
	if body.Amount != "" {
		if req.Amount, err = types.ParseAmount(body.Amount); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if err := s.backend.CheckConfirmations(r.Context(), req); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: CheckResponse{SubmissionID: id, Executable: true}})
}

// handleClaim handles POST /api/v1/claims
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var body ClaimBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := types.ParseAmount(body.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := s.backend.Claim(r.Context(), gate.ClaimParams{
		DebridgeID:  body.DebridgeID,
		ChainIDFrom: body.ChainIDFrom,
		ChainIDTo:   body.ChainIDTo,
		Amount:      amount,
		Receiver:    body.Receiver,
		Nonce:       body.Nonce,
		AutoParams:  body.AutoParams,
		Signatures:  body.Signatures,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: ClaimResponse{SubmissionID: id}})
}

// handleConfirmAsset handles POST /api/v1/assets/confirm
func (s *Server) handleConfirmAsset(w http.ResponseWriter, r *http.Request) {
	var body AssetConfirmBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	sig, err := hexutil.Decode(body.Signature)
	if err != nil {
		s.writeError(w, errorsmod.Wrapf(types.ErrWrongArgument, "signature: %s", err))
		return
	}
	meta := aggregator.AssetMetadata{
		Token:    body.Token,
		ChainID:  body.ChainID,
		Name:     body.Name,
		Symbol:   body.Symbol,
		Decimals: body.Decimals,
	}
	deployID, confirmed, err := s.backend.ConfirmNewAssetSigned(r.Context(), meta, sig)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: AssetConfirmResponse{DeployID: deployID, Confirmed: confirmed}})
}

// handleAsset handles GET /api/v1/assets/{id}
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	asset, err := s.backend.GetAsset(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: toAssetView(asset)})
}

// handleDeployInfo handles GET /api/v1/deploys/{id}
func (s *Server) handleDeployInfo(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	info, err := s.backend.GetDeployInfo(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: toDeployView(info)})
}

// handleCreateOrder handles POST /api/v1/orders
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var body CreateOrderBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	c, affiliate, err := body.creation()
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := s.backend.CreateOrder(r.Context(), body.Maker, c, body.Salt, affiliate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, QueryResponse{Data: CreateOrderResponse{OrderID: id}})
}

// handlePatchOrder handles POST /api/v1/orders/{id}/patch
func (s *Server) handlePatchOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body PatchOrderBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	add, err := types.ParseAmount(body.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.backend.PatchOrderGive(r.Context(), body.Caller, id, add); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOrder(w, r, id)
}

// handleClaimUnlock handles POST /api/v1/orders/{id}/claim-unlock
func (s *Server) handleClaimUnlock(w http.ResponseWriter, r *http.Request) {
	s.handleOrderClaim(w, r, s.backend.ClaimUnlock)
}

// handleClaimCancel handles POST /api/v1/orders/{id}/claim-cancel
func (s *Server) handleClaimCancel(w http.ResponseWriter, r *http.Request) {
	s.handleOrderClaim(w, r, s.backend.ClaimOrderCancel)
}

type orderClaimFunc func(ctx context.Context, caller []byte, id common.Hash, msg orders.ClaimMessage) error

func (s *Server) handleOrderClaim(w http.ResponseWriter, r *http.Request, claim orderClaimFunc) {
	id, err := parseHash(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body OrderClaimBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if err := claim(r.Context(), body.Caller, id, body.message()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOrder(w, r, id)
}

// handleAffiliateFee handles POST /api/v1/orders/{id}/affiliate-fee
func (s *Server) handleAffiliateFee(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body CallerBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	fee, err := s.backend.WithdrawAffiliateFee(r.Context(), body.Caller, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: AffiliateFeeResponse{Amount: fee.String()}})
}

// writeOrder answers a successful order mutation with the updated order.
func (s *Server) writeOrder(w http.ResponseWriter, r *http.Request, id common.Hash) {
	order, err := s.backend.GetOrder(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QueryResponse{Data: toOrderView(order)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return errorsmod.Wrapf(types.ErrWrongArgument, "invalid request body: %s", err)
	}
	return nil
}

func parseHash(s string) (common.Hash, error) {
	bz, err := hexutil.Decode(s)
	if err != nil || len(bz) != common.HashLength {
		return common.Hash{}, errorsmod.Wrapf(types.ErrWrongArgument, "%q is not a 32-byte hex id", s)
	}
	return common.BytesToHash(bz), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Debug().Err(err).Msg("failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	codespace, code := types.Code(err)
	resp := ErrorResponse{
		Error:    err.Error(),
		Category: types.CategoryOf(err),
		Outcome:  types.Classify(err),
	}
	if codespace == types.ModuleName {
		resp.Codespace, resp.Code = codespace, code
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("query failed")
		resp.Error = "internal error"
	}
	s.writeJSON(w, status, resp)
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	if errorsmod.IsOf(err, types.ErrNotExist) {
		return http.StatusNotFound
	}
	switch types.CategoryOf(err) {
	case types.CategoryAuthorization:
		return http.StatusForbidden
	case types.CategoryState:
		return http.StatusConflict
	case types.CategoryQuorum:
		return http.StatusTooEarly
	case types.CategoryInput, types.CategoryClaimParent:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
