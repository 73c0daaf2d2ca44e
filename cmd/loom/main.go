package main

import (
	"fmt"
	"log"
	"os"

	"github.com/alexflint/go-arg"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/hscells/loom"
	"github.com/hscells/loom/definition"
	"github.com/hscells/loom/frame"
	"github.com/hscells/loom/mixer"
)

var (
	name    = "loom"
	version = "20.Aug.2026"
	author  = "Harry Scells"
)

type args struct {
	Definition string  `help:"Path to definition file (json or toml)" arg:"-d"`
	Train      string  `help:"Path to training data csv" arg:"-t"`
	When       string  `help:"Path to csv of rows to predict" arg:"-w"`
	Accuracy   string  `help:"Path to csv with ground truth to score" arg:"-a"`
	Model      string  `help:"Path to predictor state file" arg:"-m,required"`
	Mixer      string  `help:"Mixer to fit (sgd or knn)" arg:"-x"`
	Epochs     int     `help:"Number of fit iterations for the sgd mixer" arg:"-e"`
	Rate       float64 `help:"Learning rate for the sgd mixer" arg:"-r"`
	Neighbours int     `help:"Number of neighbours for the knn mixer" arg:"-k"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
@ %s
# %s`, name, author, version)
}

func main() {
	var args args
	args.Epochs = 200
	args.Rate = 0.1
	args.Neighbours = 2
	arg.MustParse(&args)

	if len(args.Train) == 0 && len(args.When) == 0 && len(args.Accuracy) == 0 {
		log.Fatalln("nothing to do, quitting")
	}

	var (
		predictor *loom.Predictor
		err       error
	)

	if len(args.Train) > 0 {
		predictor = train(args)
		if err := predictor.SaveFile(args.Model); err != nil {
			log.Fatalln(err)
		}
		log.Printf("saved predictor %s to %s\n", predictor.ID, args.Model)
	} else {
		predictor, err = loom.LoadFile(args.Model)
		if err != nil {
			log.Fatalln(err)
		}
		log.Printf("loaded predictor %s from %s\n", predictor.ID, args.Model)
	}

	if len(args.When) > 0 {
		data, err := frame.FromCSVFile(args.When)
		if err != nil {
			log.Fatalln(err)
		}
		predictions, err := predictor.Predict(data)
		if err != nil {
			log.Fatalln(err)
		}
		for column, prediction := range predictions {
			for i, v := range prediction.Actual {
				fmt.Printf("%s[%d]: %v\n", column, i, v)
			}
		}
	}

	if len(args.Accuracy) > 0 {
		data, err := frame.FromCSVFile(args.Accuracy)
		if err != nil {
			log.Fatalln(err)
		}
		accuracies, err := predictor.Accuracy(data)
		if err != nil {
			log.Fatalln(err)
		}
		for column, score := range accuracies.Accuracies {
			fmt.Printf("%s: %v\n", column, score)
		}
	}
}

func train(args args) *loom.Predictor {
	def, err := definition.FromFile(args.Definition)
	if err != nil {
		log.Fatalln(err)
	}

	data, err := frame.FromCSVFile(args.Train)
	if err != nil {
		log.Fatalln(err)
	}

	iterations := args.Epochs
	factory := func(in, out []string) mixer.Mixer {
		return mixer.NewSGDMixer(in, out, mixer.WithEpochs(args.Epochs), mixer.WithLearningRate(args.Rate))
	}
	if args.Mixer == "knn" {
		iterations = 1
		factory = func(in, out []string) mixer.Mixer {
			return mixer.NewKNNMixer(in, out, args.Neighbours)
		}
	}

	bar := pb.New(iterations)
	bar.Start()
	predictor, err := loom.NewPredictor(def,
		loom.WithMixerFactory(factory),
		loom.WithProgress(func(mixer.FitResult) {
			bar.Increment()
		}))
	if err != nil {
		log.Fatalln(err)
	}

	if err := predictor.Learn(data); err != nil {
		bar.Finish()
		log.Fatalln(err)
	}
	bar.Finish()

	log.Printf("fitted %s on %d rows\n", def.String(), data.Rows())
	if _, err := os.Stat(args.Model); err == nil {
		log.Printf("overwriting %s\n", args.Model)
	}
	return predictor
}
