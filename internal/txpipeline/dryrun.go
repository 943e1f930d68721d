package txpipeline

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// DescribeDraft renders a human-readable preview of a Draft without
// signing or sending it, adapted from base-withdrawer's printDryRun —
// same field set, generalized from a hardcoded withdrawal action to
// any Draft.
func DescribeDraft(action string, from string, d *Draft) string {
	var b strings.Builder
	fmt.Fprintln(&b, "=== DRY RUN ===")
	fmt.Fprintf(&b, "Action:         %s\n", action)
	fmt.Fprintf(&b, "From:           %s\n", from)
	fmt.Fprintf(&b, "To:             %s\n", d.Call.To.Hex())
	fmt.Fprintf(&b, "Nonce:          %d\n", d.Nonce)
	fmt.Fprintf(&b, "Gas Limit:      %d\n", d.GasLimit)

	if d.GasParams.IsDynamic() {
		fmt.Fprintf(&b, "Max Fee:        %s wei\n", d.GasParams.MaxFeePerGas.String())
		fmt.Fprintf(&b, "Max Priority:   %s wei\n", d.GasParams.MaxPriorityFeePerGas.String())
		maxCost := new(big.Int).Mul(d.GasParams.MaxFeePerGas, new(big.Int).SetUint64(d.GasLimit))
		fmt.Fprintf(&b, "Max Cost:       %s ETH\n", weiToEthString(maxCost))
	} else {
		cost := new(big.Int).Mul(d.GasParams.GasPrice, new(big.Int).SetUint64(d.GasLimit))
		fmt.Fprintf(&b, "Gas Price:      %s wei\n", d.GasParams.GasPrice.String())
		fmt.Fprintf(&b, "Estimated Cost: %s ETH\n", weiToEthString(cost))
	}

	data := hex.EncodeToString(d.Call.Data)
	if len(data) > 128 {
		data = data[:128] + "..."
	}
	fmt.Fprintf(&b, "Tx Data:        0x%s\n", data)
	fmt.Fprintln(&b, "===============")
	return b.String()
}

func weiToEthString(wei *big.Int) string {
	eth := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18))
	return eth.Text('f', 8)
}
