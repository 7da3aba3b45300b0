package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"go.uber.org/zap"

	"github.com/plasmavault/fusebus/bus"
	"github.com/plasmavault/fusebus/chain/grpcchain"
	"github.com/plasmavault/fusebus/databus"
	"github.com/plasmavault/fusebus/model"
	"github.com/plasmavault/fusebus/plan"
	"github.com/plasmavault/fusebus/receipt"
	"github.com/plasmavault/fusebus/receipt/archive"
	"github.com/plasmavault/fusebus/word"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "plan-check":
		return cmdPlanCheck(args[1:], out, errOut)
	case "run":
		return cmdRun(args[1:], out, errOut)
	case "convert":
		return cmdConvert(args[1:], out, errOut)
	case "split":
		return cmdSplit(args[1:], out, errOut)
	case "receipt-verify":
		return cmdReceiptVerify(args[1:], out, errOut)
	case "receipt-cid":
		return cmdReceiptCID(args[1:], out, errOut)
	case "key-gen":
		return cmdKeyGen(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "fusebus: vault plan execution and receipt CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  fusebus plan-check <plan.txt>")
	fmt.Fprintln(w, "  fusebus run --plan <plan.txt> [--archive memory|localfs] [--chain <addr>] [--sign-key-file <path>] [--signer-key <alg:base64>] [--total-assets] [-v]")
	fmt.Fprintln(w, "  fusebus convert --value <0xhex|decimal> --from <kind> --to <kind> [--from-scale N] [--to-scale N]")
	fmt.Fprintln(w, "  fusebus split --total <decimal> --denominator <N> --numerators <a,b,c>")
	fmt.Fprintln(w, "  fusebus receipt-verify <receipt.txt>")
	fmt.Fprintln(w, "  fusebus receipt-cid <receipt.txt>")
	fmt.Fprintln(w, "  fusebus key-gen --alg ed25519|dilithium3 --out <path>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - run prints a JSON execution report to stdout")
	fmt.Fprintln(w, "  - key-gen writes the private key to <path> (0600) and prints the signer key")
	fmt.Fprintln(w, "  - --archive=localfs requires --archive-dir")
}

func cmdPlanCheck(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("plan-check", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: fusebus plan-check <plan.txt>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read plan: %v\n", err)
		return 1
	}
	p, err := plan.Parse(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid plan: %v\n", err)
		return 1
	}
	for _, m := range p.Mounts {
		fmt.Fprintf(out, "fuse\t%s\t%s\n", m.Name, m.Addr)
	}
	for i, a := range p.Actions {
		fmt.Fprintf(out, "action\t%d\t%s\t%s\t%d bytes\n", i, a.Method, a.Fuse, len(a.Payload))
	}
	return 0
}

func cmdRun(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(errOut)
	planPath := fs.String("plan", "", "plan file")
	archiveName := fs.String("archive", "", "archive backend name (optional)")
	chainAddr := fs.String("chain", "", "chain service address (optional)")
	signKeyFile := fs.String("sign-key-file", "", "private key file from key-gen (optional)")
	signerKey := fs.String("signer-key", "", "public signer key alg:base64 (required with --sign-key-file)")
	hashAlg := fs.String("hash-alg", "", "receipt hash algorithm (default sha256)")
	totalAssets := fs.Bool("total-assets", false, "report the board's aggregate balance")
	verbose := fs.Bool("v", false, "log executor steps")
	archive.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *planPath == "" {
		fmt.Fprintln(errOut, "usage: fusebus run --plan <plan.txt> [flags]")
		return 2
	}

	planBytes, err := os.ReadFile(*planPath)
	if err != nil {
		fmt.Fprintf(errOut, "read plan: %v\n", err)
		return 1
	}

	opts := model.RunOptions{TotalAssets: *totalAssets}

	if *archiveName != "" {
		store, err := archive.Open(*archiveName)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		opts.Archive = store
	}

	if *chainAddr != "" {
		client, err := grpcchain.Dial(*chainAddr, grpcchain.DialOptions{})
		if err != nil {
			fmt.Fprintf(errOut, "dial chain: %v\n", err)
			return 1
		}
		defer client.Close()
		opts.Caller = client
	}

	if *signKeyFile != "" {
		ropts, err := signingOptions(*signKeyFile, *signerKey, *hashAlg)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		opts.ReceiptOptions = ropts
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		defer logger.Sync()
		opts.Logger = logger
	}

	report, err := model.RunPlan(context.Background(), planBytes, opts)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

// signingOptions loads a key-gen private key file and pairs it with the
// public signer key string embedded in receipts.
func signingOptions(keyFile, signerKey, hashAlg string) (receipt.RenderOptions, error) {
	if signerKey == "" {
		return receipt.RenderOptions{}, errors.New("--sign-key-file requires --signer-key")
	}
	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return receipt.RenderOptions{}, fmt.Errorf("read key file: %w", err)
	}
	alg, b64, ok := strings.Cut(strings.TrimSpace(string(raw)), ":")
	if !ok {
		return receipt.RenderOptions{}, errors.New("malformed key file (want alg:base64)")
	}
	keyBytes, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return receipt.RenderOptions{}, fmt.Errorf("decode key file: %w", err)
	}

	ropts := receipt.RenderOptions{SignerKey: signerKey, HashAlg: hashAlg}
	switch alg {
	case "ed25519":
		if len(keyBytes) != ed25519.PrivateKeySize {
			return receipt.RenderOptions{}, errors.New("invalid ed25519 private key length")
		}
		ropts.Ed25519Key = ed25519.PrivateKey(keyBytes)
	case "dilithium3":
		var sk mode3.PrivateKey
		if err := sk.UnmarshalBinary(keyBytes); err != nil {
			return receipt.RenderOptions{}, fmt.Errorf("invalid dilithium3 private key: %w", err)
		}
		ropts.Dilithium3Key = &sk
	default:
		return receipt.RenderOptions{}, fmt.Errorf("unsupported key algorithm %q", alg)
	}
	return ropts, nil
}

func cmdConvert(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(errOut)
	valueStr := fs.String("value", "", "value: 0x-prefixed hex word or decimal integer")
	fromStr := fs.String("from", "", "source kind")
	toStr := fs.String("to", "", "destination kind")
	fromScale := fs.Uint("from-scale", 0, "source decimal scale")
	toScale := fs.Uint("to-scale", 0, "destination decimal scale")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *valueStr == "" || *fromStr == "" || *toStr == "" {
		fmt.Fprintln(errOut, "usage: fusebus convert --value <v> --from <kind> --to <kind> [--from-scale N] [--to-scale N]")
		return 2
	}

	from, err := word.ParseKind(*fromStr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	to, err := word.ParseKind(*toStr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	v, err := parseValueArg(*valueStr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	got, err := word.Convert(v, from, uint8(*fromScale), to, uint8(*toScale))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "%s\t%s\n", got, got.Big(to))
	return 0
}

func parseValueArg(s string) (word.Value, error) {
	if strings.HasPrefix(s, "0x") {
		return word.ParseValue(s)
	}
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return word.Value{}, fmt.Errorf("invalid value %q", s)
	}
	return word.FromBig(i), nil
}

// cmdSplit dry-runs a proportional split through a throwaway store so
// the printed allocations are exactly what an execution would write.
func cmdSplit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	fs.SetOutput(errOut)
	totalStr := fs.String("total", "", "total to divide (decimal)")
	denom := fs.Uint64("denominator", 0, "denominator")
	numsStr := fs.String("numerators", "", "comma-separated numerators")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *totalStr == "" || *numsStr == "" {
		fmt.Fprintln(errOut, "usage: fusebus split --total <decimal> --denominator <N> --numerators <a,b,c>")
		return 2
	}

	total, ok := new(big.Int).SetString(*totalStr, 10)
	if !ok || total.Sign() < 0 {
		fmt.Fprintf(errOut, "invalid total %q\n", *totalStr)
		return 2
	}
	var routes []databus.SplitRoute
	for i, f := range strings.Split(*numsStr, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 64)
		if err != nil {
			fmt.Fprintf(errOut, "invalid numerator %q: %v\n", f, err)
			return 2
		}
		routes = append(routes, databus.SplitRoute{
			DstAddr:   routeAddr(i),
			DstIndex:  0,
			Numerator: n,
		})
	}

	src := word.Address{0xff}
	st := bus.NewStore()
	st.Write(src, bus.DirOutputs, []word.Value{word.FromBig(total)})

	pl := databus.SplitPayload{
		SrcDir:      bus.DirOutputs,
		SrcAddr:     src,
		SrcIndex:    0,
		Denominator: *denom,
		Routes:      routes,
	}
	if err := databus.NewSplitter().Enter(context.Background(), st, pl.Encode()); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	for i, r := range routes {
		v, err := st.Read(r.DstAddr, bus.DirInputs, 0)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		fmt.Fprintf(out, "route\t%d\t%d/%d\t%s\n", i, r.Numerator, *denom, v.Big(word.KindUint256))
	}
	return 0
}

// routeAddr gives each dry-run route a distinct non-zero address.
func routeAddr(i int) word.Address {
	var a word.Address
	a[18] = byte(i >> 8)
	a[19] = byte(i)
	a[0] = 0x01
	return a
}

func cmdReceiptVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("receipt-verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: fusebus receipt-verify <receipt.txt>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read receipt: %v\n", err)
		return 1
	}
	signed, err := receipt.VerifySignature(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid receipt: %v\n", err)
		return 1
	}
	if signed {
		fmt.Fprintln(out, "signed and valid")
	} else {
		fmt.Fprintln(out, "canonical, unsigned")
	}
	return 0
}

func cmdReceiptCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("receipt-cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: fusebus receipt-cid <receipt.txt>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read receipt: %v\n", err)
		return 1
	}
	doc, err := receipt.NewDocumentFromBytes(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid receipt: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, doc.CID)
	return 0
}

func cmdKeyGen(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key-gen", flag.ContinueOnError)
	fs.SetOutput(errOut)
	alg := fs.String("alg", "ed25519", "signature algorithm: ed25519 or dilithium3")
	outPath := fs.String("out", "", "private key output path")
	force := fs.Bool("force", false, "overwrite an existing key file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *outPath == "" {
		fmt.Fprintln(errOut, "usage: fusebus key-gen --alg ed25519|dilithium3 --out <path>")
		return 2
	}
	if !*force {
		if _, err := os.Stat(*outPath); err == nil {
			fmt.Fprintf(errOut, "refusing to overwrite %s (use --force)\n", *outPath)
			return 1
		}
	}

	var privLine, signerKey string
	switch *alg {
	case "ed25519":
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		privLine = "ed25519:" + base64.StdEncoding.EncodeToString(priv)
		signerKey = "ed25519:" + base64.StdEncoding.EncodeToString(pub)
	case "dilithium3":
		pk, sk, err := mode3.GenerateKey(rand.Reader)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		privLine = "dilithium3:" + base64.StdEncoding.EncodeToString(sk.Bytes())
		signerKey = "dilithium3:" + base64.StdEncoding.EncodeToString(pk.Bytes())
	default:
		fmt.Fprintf(errOut, "unsupported algorithm %q\n", *alg)
		return 2
	}

	if err := os.WriteFile(*outPath, []byte(privLine+"\n"), 0o600); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, signerKey)
	return 0
}
