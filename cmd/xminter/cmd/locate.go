package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xuperchain/xminter/kernel/contract"
	"github.com/xuperchain/xminter/kernel/locator"
	"github.com/xuperchain/xminter/lib/logs"
)

const (
	defIPFSGateway  = "https://ipfs.io/ipfs/"
	maxMetadataSize = 4 << 20
	fetchTimeout    = 20 * time.Second
)

type LocateCmd struct {
	BaseCmd
	EnvConf    string
	File       string
	Collection string
	Token      string
	Gateway    string
}

func GetLocateCmd() *LocateCmd {
	locateCmdIns := new(LocateCmd)

	locateCmdIns.cmd = &cobra.Command{
		Use:   "locate <property>",
		Short: "Find a property anywhere in token metadata.",
		Example: "xminter locate image --file metadata.json\n" +
			"xminter locate tier --collection gold --token 7",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return locateCmdIns.locate(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0])
		},
	}

	flags := locateCmdIns.cmd.Flags()
	flags.StringVarP(&locateCmdIns.EnvConf, "conf", "c", defEnvConfPath(), "environment config file path")
	flags.StringVarP(&locateCmdIns.File, "file", "f", "", "metadata json file, - or empty for stdin")
	flags.StringVar(&locateCmdIns.Collection, "collection", "", "read metadata of a token of this collection")
	flags.StringVar(&locateCmdIns.Token, "token", "", "token id used with --collection")
	flags.StringVar(&locateCmdIns.Gateway, "gateway", defIPFSGateway, "gateway for ipfs:// uris")

	return locateCmdIns
}

func (t *LocateCmd) locate(ctx context.Context, in io.Reader, out io.Writer, property string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var data []byte
	var err error
	switch {
	case t.Collection != "":
		data, err = t.tokenMetadata(ctx)
	case t.File == "" || t.File == "-":
		data, err = ioutil.ReadAll(io.LimitReader(in, maxMetadataSize))
	default:
		data, err = ioutil.ReadFile(t.File)
	}
	if err != nil {
		return err
	}

	tree, err := locator.Parse(data)
	if err != nil {
		return err
	}
	v, ok := locator.Find(property, tree)
	if !ok {
		fmt.Fprintf(out, "%s not found\n", property)
		return nil
	}

	enc, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(enc))
	return nil
}

func (t *LocateCmd) tokenMetadata(ctx context.Context) ([]byte, error) {
	if t.Token == "" {
		return nil, errors.New("--token is required with --collection")
	}
	envConf, minterConf, err := loadConf(t.EnvConf)
	if err != nil {
		return nil, err
	}
	if err := initLog(envConf); err != nil {
		return nil, err
	}
	log, err := logs.NewLogger("", "locate")
	if err != nil {
		return nil, err
	}

	provider, client, err := newProvider(ctx, envConf, minterConf, false, log)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	h, err := provider.Handle(t.Collection)
	if err != nil {
		return nil, err
	}

	res, ok, err := contract.NewDispatcher(log).Invoke(ctx, "tokenURI", h, []interface{}{t.Token}, nil)
	if err != nil {
		return nil, err
	}
	uri, isStr := res.(string)
	if !ok || !isStr {
		return nil, errors.Errorf("collection %s has no token uri", t.Collection)
	}
	log.Debug("fetch token metadata", "collection", t.Collection, "token", t.Token, "uri", uri)
	return fetchMetadata(ctx, uri, t.Gateway)
}

// fetchMetadata resolves data:, ipfs:// and http(s) token uris.
func fetchMetadata(ctx context.Context, uri, gateway string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "data:"):
		return decodeDataURI(uri)
	case strings.HasPrefix(uri, "ipfs://"):
		uri = strings.TrimSuffix(gateway, "/") + "/" + strings.TrimPrefix(uri, "ipfs://")
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
	default:
		return nil, errors.Errorf("unsupported token uri %q", uri)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s failed", uri)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch %s failed.status:%s", uri, resp.Status)
	}
	return ioutil.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
}

func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, errors.New("malformed data uri")
	}
	header, payload := uri[len("data:"):comma], uri[comma+1:]
	if strings.HasSuffix(header, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace([]byte(text)), nil
}
