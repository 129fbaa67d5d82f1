package service_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"cipher_go/internal/domain"
	"cipher_go/internal/domain/mock"
	"cipher_go/internal/service"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenCPH = domain.Token{Symbol: "CPH", Address: common.HexToAddress("0x2f4eD4942BdF443aE5da11ac3cAB7bee8d6FaF45"), Decimals: 18}
	tokenMSK = domain.Token{Symbol: "MSK", Address: common.HexToAddress("0xbD313aDE73Cc114184CdBEf96788dd55118d4911"), Decimals: 18}
	testPool = domain.PoolKey{
		Currency0:   tokenCPH.Address,
		Currency1:   tokenMSK.Address,
		Fee:         big.NewInt(3000),
		TickSpacing: big.NewInt(60),
		Hooks:       spender,
	}
)

func waitQuote(t *testing.T, f *service.QuoteFeed) service.QuoteState {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s := f.State(); !s.Loading {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Timeout waiting for quote")
	return service.QuoteState{}
}

func TestQuoteFeed_Success(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	in, _ := domain.ParseUnits("100", 18)
	out, _ := domain.ParseUnits("98.5", 18)

	quoter := mock.NewMockQuoter(mockCtrl)
	quoter.EXPECT().QuoteExactInputSingle(gomock.Any(), testPool, true, in).Return(out, nil)

	f := service.NewQuoteFeed(quoter, testPool, time.Second, nil, nil, nil)
	defer f.Close()

	f.Update(context.Background(), service.QuoteParams{From: tokenCPH, To: tokenMSK, Amount: "100"})
	s := waitQuote(t, f)

	require.NoError(t, s.Err)
	assert.Equal(t, "98.5", s.Amount.String())
}

func TestQuoteFeed_TimeoutVsError(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	t.Run("timeout", func(t *testing.T) {
		quoter := mock.NewMockQuoter(mockCtrl)
		quoter.EXPECT().QuoteExactInputSingle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, key domain.PoolKey, zeroForOne bool, amount *big.Int) (*big.Int, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})

		f := service.NewQuoteFeed(quoter, testPool, 20*time.Millisecond, nil, nil, nil)
		defer f.Close()

		f.Update(context.Background(), service.QuoteParams{From: tokenCPH, To: tokenMSK, Amount: "1"})
		s := waitQuote(t, f)

		var qe *domain.QuoteError
		require.ErrorAs(t, s.Err, &qe)
		assert.True(t, qe.Timeout)
		assert.ErrorIs(t, s.Err, domain.ErrQuoteTimeout)
	})

	t.Run("upstream error", func(t *testing.T) {
		quoter := mock.NewMockQuoter(mockCtrl)
		quoter.EXPECT().QuoteExactInputSingle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("execution reverted"))

		f := service.NewQuoteFeed(quoter, testPool, time.Second, nil, nil, nil)
		defer f.Close()

		f.Update(context.Background(), service.QuoteParams{From: tokenCPH, To: tokenMSK, Amount: "1"})
		s := waitQuote(t, f)

		var qe *domain.QuoteError
		require.ErrorAs(t, s.Err, &qe)
		assert.False(t, qe.Timeout)
		assert.NotErrorIs(t, s.Err, domain.ErrQuoteTimeout)
	})
}

func TestQuoteFeed_InvalidParamsIssueNoRequest(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	quoter := mock.NewMockQuoter(mockCtrl)
	quoter.EXPECT().QuoteExactInputSingle(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	f := service.NewQuoteFeed(quoter, testPool, time.Second, nil, nil, nil)
	defer f.Close()

	for _, p := range []service.QuoteParams{
		{From: tokenCPH, To: tokenMSK, Amount: ""},
		{From: tokenCPH, To: tokenMSK, Amount: "0"},
		{From: tokenCPH, To: tokenMSK, Amount: "abc"},
		{From: tokenCPH, To: tokenCPH, Amount: "5"},
	} {
		f.Update(context.Background(), p)
		s := f.State()
		assert.False(t, s.Loading)
		assert.NoError(t, s.Err)
		assert.True(t, s.Amount.IsZero())
	}
}

func TestQuoteFeed_StaleResultDiscarded(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	first, _ := domain.ParseUnits("1", 18)
	second, _ := domain.ParseUnits("2", 18)

	quoter := mock.NewMockQuoter(mockCtrl)
	quoter.EXPECT().QuoteExactInputSingle(gomock.Any(), gomock.Any(), gomock.Any(), first).DoAndReturn(
		func(ctx context.Context, key domain.PoolKey, zeroForOne bool, amount *big.Int) (*big.Int, error) {
			<-ctx.Done()
			return big.NewInt(111), nil
		})
	quoter.EXPECT().QuoteExactInputSingle(gomock.Any(), gomock.Any(), gomock.Any(), second).Return(big.NewInt(222), nil)

	f := service.NewQuoteFeed(quoter, testPool, time.Second, nil, nil, nil)
	defer f.Close()

	f.Update(context.Background(), service.QuoteParams{From: tokenCPH, To: tokenMSK, Amount: "1"})
	f.Update(context.Background(), service.QuoteParams{From: tokenCPH, To: tokenMSK, Amount: "2"})
	s := waitQuote(t, f)

	require.NoError(t, s.Err)
	assert.Equal(t, int64(222), s.Raw.Int64())
	assert.Equal(t, "2", s.Params.Amount)
}

// stuckQuoter ignores ctx until release is closed.
type stuckQuoter struct {
	called  chan struct{}
	release chan struct{}
}

func (q *stuckQuoter) QuoteExactInputSingle(ctx context.Context, key domain.PoolKey, zeroForOne bool, exactAmount *big.Int) (*big.Int, error) {
	close(q.called)
	<-q.release
	return big.NewInt(1), nil
}

func TestQuoteFeed_CloseDoesNotWaitForQuoter(t *testing.T) {
	quoter := &stuckQuoter{called: make(chan struct{}), release: make(chan struct{})}
	defer close(quoter.release)

	f := service.NewQuoteFeed(quoter, testPool, time.Hour, nil, nil, nil)
	f.Update(context.Background(), service.QuoteParams{From: tokenCPH, To: tokenMSK, Amount: "1"})
	<-quoter.called

	closed := make(chan struct{})
	go func() {
		f.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a quoter that ignores cancellation")
	}
}
