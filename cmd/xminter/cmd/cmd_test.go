package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io/ioutil"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xminter/kernel/balance"
	"github.com/xuperchain/xminter/kernel/common/xconfig"
	"github.com/xuperchain/xminter/kernel/contract"
)

const tokenMetadata = `{
  "name": "Gold Member #7",
  "image": "ipfs://bafy/7.png",
  "attributes": {"tier": "gold", "perks": {"lounge": true}}
}`

func runLocate(t *testing.T, stdin string, args ...string) string {
	c := GetLocateCmd().GetCmd()
	var out bytes.Buffer
	c.SetIn(strings.NewReader(stdin))
	c.SetOut(&out)
	c.SetArgs(args)
	require.NoError(t, c.Execute())
	return out.String()
}

func TestLocateCommand(t *testing.T) {
	assert.Equal(t, "\"gold\"\n", runLocate(t, tokenMetadata, "tier"))
	assert.Equal(t, "{\"lounge\":true}\n", runLocate(t, tokenMetadata, "perks"))
	assert.Equal(t, "level not found\n", runLocate(t, tokenMetadata, "level"))
	assert.Equal(t, "{\"tier\":\"gold\",\"perks\":{\"lounge\":true}}\n", runLocate(t, tokenMetadata, "attributes"))

	file := filepath.Join(t.TempDir(), "meta.json")
	require.NoError(t, ioutil.WriteFile(file, []byte(tokenMetadata), 0644))
	assert.Equal(t, "\"Gold Member #7\"\n", runLocate(t, "", "name", "--file", file))

	c := GetLocateCmd().GetCmd()
	c.SetIn(strings.NewReader("{broken"))
	c.SetOut(ioutil.Discard)
	c.SetArgs([]string{"name"})
	assert.Error(t, c.Execute())
}

func TestFetchMetadata(t *testing.T) {
	ctx := context.Background()

	b64 := "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(tokenMetadata))
	data, err := fetchMetadata(ctx, b64, defIPFSGateway)
	require.NoError(t, err)
	assert.Equal(t, tokenMetadata, string(data))

	data, err = fetchMetadata(ctx, `data:application/json,{"tier":"silver"}`, defIPFSGateway)
	require.NoError(t, err)
	assert.Equal(t, `{"tier":"silver"}`, string(data))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bafy/7.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(tokenMetadata))
	}))
	defer srv.Close()

	data, err = fetchMetadata(ctx, "ipfs://bafy/7.json", srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, tokenMetadata, string(data))

	_, err = fetchMetadata(ctx, srv.URL+"/missing", defIPFSGateway)
	assert.Error(t, err)
	_, err = fetchMetadata(ctx, "ftp://host/7.json", defIPFSGateway)
	assert.Error(t, err)
	_, err = fetchMetadata(ctx, "data:application/json", defIPFSGateway)
	assert.Error(t, err)
}

func TestBuildCall(t *testing.T) {
	args, md := buildCall(nil, nil)
	assert.Nil(t, args)
	assert.Nil(t, md)

	args, md = buildCall([]string{"0x01", "7"}, map[string]string{"value": "1000"})
	assert.Equal(t, []interface{}{"0x01", "7"}, args)
	assert.Equal(t, contract.CallMetadata{"value": "1000"}, md)
}

func TestFormatResult(t *testing.T) {
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	assert.Equal(t, "<nil>", formatResult(nil))
	assert.Equal(t, "42", formatResult(big.NewInt(42)))
	assert.Equal(t, addr.Hex(), formatResult(addr))
	assert.Equal(t, "0a0b", formatResult([]byte{10, 11}))
	assert.Equal(t, "Members 3", formatResult([]interface{}{"Members", big.NewInt(3)}))
	assert.Equal(t, "true", formatResult(true))
}

func TestPrintUpdate(t *testing.T) {
	var out bytes.Buffer
	printUpdate(&out, balance.Update{Collection: "gold", Entry: balance.Entry{Value: big.NewInt(3), Block: 9}})
	printUpdate(&out, balance.Update{Collection: "gold", Entry: balance.Entry{Value: big.NewInt(3), Stale: true, Err: errors.New("timeout")}})
	printUpdate(&out, balance.Update{Collection: "silver", Entry: balance.Entry{Stale: true, Err: errors.New("reverted")}})

	assert.Equal(t, "gold balance=3 block=9\n"+
		"gold balance=3 stale err=timeout\n"+
		"silver balance=- stale err=reverted\n", out.String())
}

func TestCollections(t *testing.T) {
	envConf := xconfig.GetDefEnvConf()
	envConf.RootPath = "/opt/xminter"
	minterConf := xconfig.GetDefMinterConf()
	minterConf.Collections = []xconfig.CollectionConf{
		{ID: "gold", Address: "0x01"},
		{ID: "silver", Address: "0x02", ABIPath: "silver.abi"},
		{ID: "bronze", Address: "0x03", ABIPath: "/etc/bronze.abi"},
	}

	colls := collections(envConf, minterConf)
	require.Len(t, colls, 3)
	assert.Equal(t, "", colls[0].ABIPath)
	assert.Equal(t, "/opt/xminter/conf/silver.abi", colls[1].ABIPath)
	assert.Equal(t, "/etc/bronze.abi", colls[2].ABIPath)
}

func TestVersionCommand(t *testing.T) {
	c := GetVersionCmd().GetCmd()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs([]string{})
	require.NoError(t, c.Execute())
	assert.Equal(t, versionString()+"\n", out.String())
}
