package evm

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

const (
	collectionNameBase  = "NFTCollection"
	collectionIDMaxSize = 32
	collectionIDMinSize = 2
)

var collectionIDRegex = regexp.MustCompile("^[a-zA-Z_][0-9a-zA-Z_.-]*[0-9a-zA-Z_]$")

// Collection is one deployed NFT collection contract.
type Collection struct {
	ID      string
	Name    string
	Address string
	// ABIPath may be empty, DefaultABI is used then.
	ABIPath string
}

// CollectionName returns the display name of the index-th deployed collection:
// "NFTCollection" for the first, "NFTCollection<index>" after that.
func CollectionName(index int) string {
	if index <= 0 {
		return collectionNameBase
	}
	return collectionNameBase + strconv.Itoa(index)
}

// ValidCollectionID return error when id can not be used as a collection id.
func ValidCollectionID(id string) error {
	size := len(id)
	if size > collectionIDMaxSize || size < collectionIDMinSize {
		return fmt.Errorf("collection id length expect [%d~%d], actual: %d", collectionIDMinSize, collectionIDMaxSize, size)
	}
	if !collectionIDRegex.MatchString(id) {
		return fmt.Errorf("collection id %q does not fit the naming rule", id)
	}
	return nil
}

func (c *Collection) validate() error {
	if err := ValidCollectionID(c.ID); err != nil {
		return err
	}
	if !common.IsHexAddress(c.Address) {
		return fmt.Errorf("collection %s has invalid address %q", c.ID, c.Address)
	}
	return nil
}

// DefaultABI covers the ERC-721 surface plus a payable mint.
const DefaultABI = `[
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"mint","stateMutability":"payable","inputs":[{"name":"to","type":"address"}],"outputs":[]},
{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]}
]`
