package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"sbtid-verifier-bot/internal/common/logger"
	"sbtid-verifier-bot/internal/common/metrics"
	"sbtid-verifier-bot/internal/features/nft/models"
	"sbtid-verifier-bot/internal/platform/toncenter"
)

// get_nft_address_by_index returns -14 when the collection has no item at
// the requested index.
const exitIndexNotFound = -14

const getMethodName = "get_nft_address_by_index"

const (
	resultMinted    = "minted"
	resultNotMinted = "not_minted"
	resultError     = "error"
)

// TonAPI is the slice of the TON client the lookup pipeline needs.
type TonAPI interface {
	CurrentSeqno(ctx context.Context) int64
	RunGetMethod(ctx context.Context, contract, method string, stack [][]string, seqno int64) (*toncenter.RunResult, error)
	IsAddressActive(ctx context.Context, address string) bool
}

type NFTService interface {
	LookupStatus(ctx context.Context, userID int64) models.Status
}

type nftService struct {
	ton      TonAPI
	contract string
}

func NewNFTService(ton TonAPI, contractAddress string) NFTService {
	return &nftService{
		ton:      ton,
		contract: contractAddress,
	}
}

// LookupStatus resolves whether the NFT with index userID exists and is
// active, and renders the answer as the final user-facing message. Upstream
// trouble becomes an error message, never a returned error.
func (s *nftService) LookupStatus(ctx context.Context, userID int64) models.Status {
	status, result := s.lookup(ctx, userID)

	metrics.StatusLookups.WithLabelValues(result).Inc()
	logger.Info().
		Int64("user_id", userID).
		Str("result", result).
		Msg("NFT status lookup finished")

	return status
}

func (s *nftService) lookup(ctx context.Context, userID int64) (models.Status, string) {
	status := models.Status{UserID: userID}

	seqno := s.ton.CurrentSeqno(ctx)

	result, err := s.ton.RunGetMethod(ctx, s.contract, getMethodName,
		[][]string{{"num", strconv.FormatInt(userID, 10)}}, seqno)
	if err != nil {
		status.Message = mapQueryError(err)
		return status, resultError
	}

	if result.ExitCode != nil {
		code := *result.ExitCode
		if code == exitIndexNotFound {
			status.Message = fmt.Sprintf(msgIndexNotFound, userID)
			return status, resultNotMinted
		}
		if code != 0 && code != -1 {
			status.Message = fmt.Sprintf(msgLikelyNotMinted, userID, code)
			return status, resultNotMinted
		}
	}

	if len(result.Stack) == 0 {
		status.Message = fmt.Sprintf(msgEmptyStack, userID)
		return status, resultNotMinted
	}

	item := result.Stack[0]

	if boc, ok := item.CellBytes(); ok {
		addr, err := decodeNFTAddress(boc)
		if err != nil {
			status.Message = fmt.Sprintf(msgProcessingError, err)
			return status, resultError
		}
		if addr == nil {
			status.Message = fmt.Sprintf(msgZeroAddress, userID)
			return status, resultNotMinted
		}

		rendered := addr.String()
		if !s.ton.IsAddressActive(ctx, rendered) {
			status.Message = fmt.Sprintf(msgNotActive, userID, rendered)
			return status, resultNotMinted
		}

		status.Minted = true
		status.Address = rendered
		status.Message = fmt.Sprintf(msgMintedActive, rendered)
		return status, resultMinted
	}

	if item.Type == "null" {
		status.Message = fmt.Sprintf(msgNoAddress, userID)
		return status, resultNotMinted
	}
	if num, ok := item.Num(); ok && num == "0" {
		status.Message = fmt.Sprintf(msgNoAddress, userID)
		return status, resultNotMinted
	}

	status.Message = msgUnexpectedFormat
	return status, resultError
}

// mapQueryError turns a runGetMethod failure into its user-facing wording.
func mapQueryError(err error) string {
	var statusErr *toncenter.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf(msgUpstreamStatus, statusErr.Code)
	}

	var apiErr *toncenter.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf(msgBlockchainError, apiErr.Message)
	}

	if errors.Is(err, toncenter.ErrInvalidResponse) {
		return msgInvalidResponse
	}

	return fmt.Sprintf(msgUnexpectedError, err)
}
