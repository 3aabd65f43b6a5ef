package main

const sigchatBanner = `
   _____ _       _____ _           _
  / ____(_)     / ____| |         | |
 | (___  _  __ _| |    | |__   __ _| |_
  \___ \| |/ _' | |    | '_ \ / _' | __|
  ____) | | (_| | |____| | | | (_| | |_
 |_____/|_|\__, |\_____|_| |_|\__,_|\__|
            __/ |
           |___/
`
